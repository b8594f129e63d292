package desk

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	GreetingText = "Hello! How can I assist you today?"
	ApologyText  = "I'm sorry, I was unable to process your query. Please try again."

	MessageInitialized  = "Conversation Initialized"
	MessageContinuation = "Conversation Continuation"

	lastUpdatedByAPI = "API"
)

// ChatRequest is the inbound chat payload. Conversation is kept raw so that
// non-object values can be rejected.
type ChatRequest struct {
	Conversation   json.RawMessage `json:"conversation"`
	ConversationID string          `json:"conversation_id"`
	UserEmail      string          `json:"user_email"`
	OrgID          string          `json:"org_id,omitempty"`
}

type ResponseData struct {
	Role              string     `json:"role"`
	Content           string     `json:"content"`
	FollowupQuestions []string   `json:"followup_questions,omitempty"`
	Citation          []Citation `json:"citation,omitempty"`
}

// ChatResponse is the envelope returned for every accepted request.
type ChatResponse struct {
	Data            ResponseData `json:"data"`
	ConversationID  string       `json:"conversation_id"`
	Message         string       `json:"message"`
	StatusCode      int          `json:"statusCode"`
	LastUpdatedDate *string      `json:"__lastupdateddate"`
	LastUpdatedBy   *string      `json:"__lastupdatedby"`
}

// EmployeeDesk validates chat requests, answers the handshakes and runs the
// pipeline for real queries.
type EmployeeDesk struct {
	pipeline     *Pipeline
	defaultOrgID string
	reporter     ProgressReporter
	newID        func() string
}

type DeskOption func(*EmployeeDesk)

// WithProgressReporter adds a reporter next to the per-conversation stage log.
func WithProgressReporter(r ProgressReporter) DeskOption {
	return func(d *EmployeeDesk) { d.reporter = r }
}

func NewEmployeeDesk(pipeline *Pipeline, defaultOrgID string, opts ...DeskOption) *EmployeeDesk {
	d := &EmployeeDesk{
		pipeline:     pipeline,
		defaultOrgID: defaultOrgID,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Chat returns an InvalidArgument error for malformed conversations. Every
// other outcome, including pipeline failures, is a response envelope.
func (d *EmployeeDesk) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	content, err := parseConversation(req.Conversation)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ConversationID) == "" {
		conversationID := d.newID()
		logger.Info("New Conversation Initiated", zap.String("conversationId", conversationID))
		return greeting(conversationID, MessageInitialized), nil
	}

	query := strings.TrimSpace(content)
	if query == "" {
		logger.Info("Empty Query", zap.String("conversationId", req.ConversationID))
		return greeting(req.ConversationID, MessageContinuation), nil
	}

	orgID := req.OrgID
	if orgID == "" {
		orgID = d.defaultOrgID
	}

	var reporter ProgressReporter = &LogProgressReporter{ConversationID: req.ConversationID}
	if d.reporter != nil {
		reporter = MultiProgressReporter{reporter, d.reporter}
	}

	outcome := d.pipeline.Run(ctx, reporter, Request{
		Query:          query,
		ConversationID: req.ConversationID,
		UserEmail:      req.UserEmail,
		OrgID:          orgID,
	})

	if outcome.Failed() {
		logger.Error("Error getting response body",
			zap.String("conversationId", req.ConversationID), zap.Error(outcome.Err))
		return apology(req.ConversationID), nil
	}

	exchange := outcome.Exchange
	timestamp := exchange.Timestamp
	updatedBy := lastUpdatedByAPI
	return &ChatResponse{
		Data: ResponseData{
			Role:              "assistant",
			Content:           exchange.Answer,
			FollowupQuestions: exchange.FollowupQuestions,
			Citation:          outcome.Citations,
		},
		ConversationID:  exchange.ConversationID,
		Message:         MessageContinuation,
		StatusCode:      0,
		LastUpdatedDate: &timestamp,
		LastUpdatedBy:   &updatedBy,
	}, nil
}

func parseConversation(raw json.RawMessage) (string, error) {
	var conversation map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &conversation) != nil || conversation == nil {
		return "", status.Error(codes.InvalidArgument, "Conversation is not of type: Dict")
	}

	if role, ok := conversation["role"].(string); !ok || role != "user" {
		return "", status.Error(codes.InvalidArgument, "Role key not found or not of type: user")
	}

	value, ok := conversation["content"]
	if !ok {
		return "", status.Error(codes.InvalidArgument, "Content key not found")
	}
	content, ok := value.(string)
	if !ok && value != nil {
		return "", status.Error(codes.InvalidArgument, "Content is not of type: str")
	}
	return content, nil
}

func greeting(conversationID, message string) *ChatResponse {
	return &ChatResponse{
		Data:           ResponseData{Role: "assistant", Content: GreetingText},
		ConversationID: conversationID,
		Message:        message,
		StatusCode:     0,
	}
}

func apology(conversationID string) *ChatResponse {
	return &ChatResponse{
		Data:           ResponseData{Role: "assistant", Content: ApologyText},
		ConversationID: conversationID,
		Message:        MessageContinuation,
		StatusCode:     0,
	}
}
