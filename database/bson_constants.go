package database

// Opérateurs MongoDB (évite les littéraux dupliqués)
const (
	BSONLookup  = "$lookup"
	BSONUnwind  = "$unwind"
	BSONMatch   = "$match"
	BSONGroup   = "$group"
	BSONSort    = "$sort"
	BSONSet     = "$set"
	BSONInc     = "$inc"
	BSONRegex   = "$regex"
	BSONOptions = "$options"
	BSONProject = "$project"
	BSONSkip    = "$skip"
	BSONLimit   = "$limit"
	BSONFacet   = "$facet"
	BSONCount   = "$count"
)
