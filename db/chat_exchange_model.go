package db

import "time"

// ChatExchangeModel is one completed user query + assistant answer pair.
// Exchanges are append-only and partitioned by ConversationID.
type ChatExchangeModel struct {
	ID                string    `json:"id" bson:"_id"`
	ConversationID    string    `json:"conversation_id" bson:"conversationId"`
	OrgID             string    `json:"org_id" bson:"orgId"`
	Query             string    `json:"query" bson:"query"`
	SearchQuery       string    `json:"search_query" bson:"searchQuery"`
	Answer            string    `json:"answer" bson:"answer"`
	FollowupQuestions []string  `json:"followup_questions" bson:"followupQuestions"`
	ContextID         []string  `json:"context_id" bson:"contextId"`
	UserEmail         string    `json:"user_email" bson:"userEmail"`
	ModelName         string    `json:"model_name" bson:"modelName"`
	PromptTokens      int       `json:"prompt_tokens" bson:"promptTokens"`
	CompletionTokens  int       `json:"completion_tokens" bson:"completionTokens"`
	TotalTokens       int       `json:"total_tokens" bson:"totalTokens"`
	TotalCost         float64   `json:"total_cost" bson:"totalCost"`
	TotalTime         float64   `json:"total_time" bson:"totalTime"`
	Timestamp         string    `json:"timestamp" bson:"timestamp"`
	CreatedAt         time.Time `json:"created_at" bson:"createdAt"`
}

func (m ChatExchangeModel) Id() string {
	if len(m.ID) == 0 {
		return ExchangeID(m.ConversationID, m.Timestamp)
	}
	return m.ID
}

func (m ChatExchangeModel) CollectionName() string { return "chat_responses" }

// ExchangeID is the stable identity of an exchange: conversation id + "-" + timestamp.
func ExchangeID(conversationID, timestamp string) string {
	return conversationID + "-" + timestamp
}
