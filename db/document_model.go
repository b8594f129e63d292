package db

import "github.com/SaiNageswarS/go-api-boot/odm"

const (
	DocumentSearchIndexName = "documentIndex"
)

var DocumentSearchPaths = []string{"chunk", "fileName"}

// DocumentModel is a policy document chunk served by the mongo retriever.
type DocumentModel struct {
	DocumentID string `json:"documentId" bson:"_id"`
	FileName   string `json:"fileName" bson:"fileName"`
	URL        string `json:"url" bson:"url"`
	Chunk      string `json:"chunk" bson:"chunk"`
}

func (m DocumentModel) Id() string { return m.DocumentID }

func (m DocumentModel) CollectionName() string { return "documents" }

// Indexes
func (m DocumentModel) TermSearchIndexSpecs() []odm.TermSearchIndexSpec {
	return []odm.TermSearchIndexSpec{
		{
			Name:  DocumentSearchIndexName,
			Paths: DocumentSearchPaths,
		},
	}
}
