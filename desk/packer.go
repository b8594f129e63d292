package desk

import (
	"errors"
	"fmt"

	"github.com/SaiNageswarS/employee-desk/retriever"
	"github.com/SaiNageswarS/employee-desk/tokens"
)

var ErrHeaderOverBudget = errors.New("context header exceeds token budget")

// PackedContext is the bounded context handed to the response generator.
type PackedContext struct {
	Text              string
	IncludedSourceIDs []string
	Included          []retriever.Document
}

type ContextPacker struct {
	counter tokens.Counter
}

func NewContextPacker(counter tokens.Counter) *ContextPacker {
	return &ContextPacker{counter: counter}
}

// Pack appends documents in rank order while the text stays under budget and
// stops at the first document that does not fit. Later documents are never
// tried, even if they are smaller.
func (p *ContextPacker) Pack(about string, documents []retriever.Document, budget int) (PackedContext, error) {
	text := fmt.Sprintf("Source 1: \n\n%s\n\n", about)
	if p.counter.Count(text) > budget {
		return PackedContext{}, ErrHeaderOverBudget
	}

	packed := PackedContext{IncludedSourceIDs: []string{}}
	n := 2
	for _, doc := range documents {
		candidate := text + fmt.Sprintf("\nSource %d: %s\n\n%s\n", n, doc.SourceID, doc.Content)
		if p.counter.Count(candidate) >= budget {
			break
		}

		text = candidate
		packed.IncludedSourceIDs = append(packed.IncludedSourceIDs, doc.SourceID)
		packed.Included = append(packed.Included, doc)
		n++
	}

	packed.Text = text
	return packed, nil
}
