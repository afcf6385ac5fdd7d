package journal

// IDField is the wire name of the identifier.
const IDField = "_id"

// FieldNames lists the wire names of every mutable attribute in schema order.
var FieldNames = []string{
	"Rank", "Sourceid", "Title", "Type", "Issn", "SJR", "H_index",
	"Total_Docs", "Total_Refs", "Total_Citations", "Citable_Docs", "Citations_per_Doc", "Ref",
	"Female", "Overton", "SDG", "Country", "Region", "Publisher", "Coverage", "Categories", "Areas",
}

var knownFields = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FieldNames))
	for _, name := range FieldNames {
		m[name] = struct{}{}
	}
	return m
}()

// IsField reports whether name is the wire name of a journal attribute.
func IsField(name string) bool {
	_, ok := knownFields[name]
	return ok
}

// Project returns a copy of j keeping only the named attributes. The
// identifier is always kept. An empty selection returns j unchanged.
func (j Journal) Project(names []string) Journal {
	if len(names) == 0 {
		return j
	}
	out := Journal{ID: j.ID}
	for _, name := range names {
		switch name {
		case "Rank":
			out.Rank = j.Rank
		case "Sourceid":
			out.SourceID = j.SourceID
		case "Title":
			out.Title = j.Title
		case "Type":
			out.Type = j.Type
		case "Issn":
			out.ISSN = j.ISSN
		case "SJR":
			out.SJR = j.SJR
		case "H_index":
			out.HIndex = j.HIndex
		case "Total_Docs":
			out.TotalDocs = j.TotalDocs
		case "Total_Refs":
			out.TotalRefs = j.TotalRefs
		case "Total_Citations":
			out.TotalCitations = j.TotalCitations
		case "Citable_Docs":
			out.CitableDocs = j.CitableDocs
		case "Citations_per_Doc":
			out.CitationsPerDoc = j.CitationsPerDoc
		case "Ref":
			out.Ref = j.Ref
		case "Female":
			out.Female = j.Female
		case "Overton":
			out.Overton = j.Overton
		case "SDG":
			out.SDG = j.SDG
		case "Country":
			out.Country = j.Country
		case "Region":
			out.Region = j.Region
		case "Publisher":
			out.Publisher = j.Publisher
		case "Coverage":
			out.Coverage = j.Coverage
		case "Categories":
			out.Categories = j.Categories
		case "Areas":
			out.Areas = j.Areas
		}
	}
	return out
}
