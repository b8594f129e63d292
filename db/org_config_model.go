package db

// OrgConfigModel holds the organization-scoped settings of the employee desk.
// The org id doubles as the document id.
type OrgConfigModel struct {
	OrgID     string `json:"org_id" bson:"_id"`
	OrgName   string `json:"org_name" bson:"orgName"`
	Query     string `json:"query" bson:"query"` // topics employees ask about
	About     string `json:"about" bson:"about"` // context header, "Source 1"
	IndexName string `json:"index_name" bson:"indexName"`
}

func (m OrgConfigModel) Id() string { return m.OrgID }

func (m OrgConfigModel) CollectionName() string { return "company_configs" }
