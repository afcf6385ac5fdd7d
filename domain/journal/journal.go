// Package journal defines the bibliometric journal record served by the API.
//
// Every attribute except the identifier is optional. Absent values are kept
// absent (nil) all the way to the store and back; a missing h-index is not the
// same thing as an h-index of zero.
package journal

// Metric holds one of the semi-structured citation metrics. Upstream exports
// carry them as plain numbers, as locale-formatted strings ("1.234,5") or as
// small objects keyed by year, so the value is kept as decoded JSON.
type Metric = any

// Fields is the set of mutable journal attributes. It doubles as the partial
// update payload: a nil field means "not supplied".
type Fields struct {
	Rank            *int    `json:"Rank,omitempty" bson:"Rank,omitempty" dynamodbav:"Rank,omitempty" validate:"omitempty,gte=1"`
	SourceID        *string `json:"Sourceid,omitempty" bson:"Sourceid,omitempty" dynamodbav:"Sourceid,omitempty" validate:"omitempty,max=64"`
	Title           *string `json:"Title,omitempty" bson:"Title,omitempty" dynamodbav:"Title,omitempty" validate:"omitempty,max=512"`
	Type            *string `json:"Type,omitempty" bson:"Type,omitempty" dynamodbav:"Type,omitempty" validate:"omitempty,max=64"`
	ISSN            *string `json:"Issn,omitempty" bson:"Issn,omitempty" dynamodbav:"Issn,omitempty" validate:"omitempty,max=128"`
	SJR             *string `json:"SJR,omitempty" bson:"SJR,omitempty" dynamodbav:"SJR,omitempty" validate:"omitempty,max=32"`
	HIndex          *int    `json:"H_index,omitempty" bson:"H_index,omitempty" dynamodbav:"H_index,omitempty" validate:"omitempty,gte=0"`
	TotalDocs       Metric  `json:"Total_Docs,omitempty" bson:"Total_Docs,omitempty" dynamodbav:"Total_Docs,omitempty" validate:"omitempty,metric"`
	TotalRefs       Metric  `json:"Total_Refs,omitempty" bson:"Total_Refs,omitempty" dynamodbav:"Total_Refs,omitempty" validate:"omitempty,metric"`
	TotalCitations  Metric  `json:"Total_Citations,omitempty" bson:"Total_Citations,omitempty" dynamodbav:"Total_Citations,omitempty" validate:"omitempty,metric"`
	CitableDocs     Metric  `json:"Citable_Docs,omitempty" bson:"Citable_Docs,omitempty" dynamodbav:"Citable_Docs,omitempty" validate:"omitempty,metric"`
	CitationsPerDoc Metric  `json:"Citations_per_Doc,omitempty" bson:"Citations_per_Doc,omitempty" dynamodbav:"Citations_per_Doc,omitempty" validate:"omitempty,metric"`
	Ref             Metric  `json:"Ref,omitempty" bson:"Ref,omitempty" dynamodbav:"Ref,omitempty" validate:"omitempty,metric"`
	Female          *string `json:"Female,omitempty" bson:"Female,omitempty" dynamodbav:"Female,omitempty" validate:"omitempty,max=32"`
	Overton         *int    `json:"Overton,omitempty" bson:"Overton,omitempty" dynamodbav:"Overton,omitempty" validate:"omitempty,gte=0"`
	SDG             *int    `json:"SDG,omitempty" bson:"SDG,omitempty" dynamodbav:"SDG,omitempty" validate:"omitempty,gte=0"`
	Country         *string `json:"Country,omitempty" bson:"Country,omitempty" dynamodbav:"Country,omitempty" validate:"omitempty,max=128"`
	Region          *string `json:"Region,omitempty" bson:"Region,omitempty" dynamodbav:"Region,omitempty" validate:"omitempty,max=128"`
	Publisher       *string `json:"Publisher,omitempty" bson:"Publisher,omitempty" dynamodbav:"Publisher,omitempty" validate:"omitempty,max=512"`
	Coverage        *string `json:"Coverage,omitempty" bson:"Coverage,omitempty" dynamodbav:"Coverage,omitempty" validate:"omitempty,max=256"`
	Categories      *string `json:"Categories,omitempty" bson:"Categories,omitempty" dynamodbav:"Categories,omitempty" validate:"omitempty,max=4096"`
	Areas           *string `json:"Areas,omitempty" bson:"Areas,omitempty" dynamodbav:"Areas,omitempty" validate:"omitempty,max=1024"`
}

// Patch is a partial update. Only non-nil fields are applied.
type Patch = Fields

// Journal is a stored journal record.
type Journal struct {
	ID string `json:"_id" bson:"-" dynamodbav:"id"`
	Fields
}

// Apply merges the supplied fields of p into f. Fields omitted from p keep
// their current value.
func (f *Fields) Apply(p Patch) {
	if p.Rank != nil {
		f.Rank = p.Rank
	}
	if p.SourceID != nil {
		f.SourceID = p.SourceID
	}
	if p.Title != nil {
		f.Title = p.Title
	}
	if p.Type != nil {
		f.Type = p.Type
	}
	if p.ISSN != nil {
		f.ISSN = p.ISSN
	}
	if p.SJR != nil {
		f.SJR = p.SJR
	}
	if p.HIndex != nil {
		f.HIndex = p.HIndex
	}
	if p.TotalDocs != nil {
		f.TotalDocs = p.TotalDocs
	}
	if p.TotalRefs != nil {
		f.TotalRefs = p.TotalRefs
	}
	if p.TotalCitations != nil {
		f.TotalCitations = p.TotalCitations
	}
	if p.CitableDocs != nil {
		f.CitableDocs = p.CitableDocs
	}
	if p.CitationsPerDoc != nil {
		f.CitationsPerDoc = p.CitationsPerDoc
	}
	if p.Ref != nil {
		f.Ref = p.Ref
	}
	if p.Female != nil {
		f.Female = p.Female
	}
	if p.Overton != nil {
		f.Overton = p.Overton
	}
	if p.SDG != nil {
		f.SDG = p.SDG
	}
	if p.Country != nil {
		f.Country = p.Country
	}
	if p.Region != nil {
		f.Region = p.Region
	}
	if p.Publisher != nil {
		f.Publisher = p.Publisher
	}
	if p.Coverage != nil {
		f.Coverage = p.Coverage
	}
	if p.Categories != nil {
		f.Categories = p.Categories
	}
	if p.Areas != nil {
		f.Areas = p.Areas
	}
}

// IsEmpty reports whether no field is supplied.
func (f Fields) IsEmpty() bool {
	return f == (Fields{})
}
