package models

// Family identifies one independently-mapped content family. Numeric ids
// collide across families, so every mapping lookup is namespaced by it.
type Family string

const (
	FamilyUser     Family = "user"
	FamilyCategory Family = "category"
	FamilyTag      Family = "tag"
	FamilyRegion   Family = "region"
	FamilyMedia    Family = "media"

	FamilyLibraryPost Family = "library_post"
	FamilyPage        Family = "page"
	FamilyOpinionPost Family = "opinion_post"
	FamilyHubPost     Family = "hub_post"
	FamilyNewsPost    Family = "news_post"
)

// BasicFamilies are loaded into memory at the start of every run.
var BasicFamilies = []Family{
	FamilyUser, FamilyCategory, FamilyTag, FamilyRegion, FamilyMedia,
}

// PostFamilies are the content families whose records become target posts
// or pages and carry the body-repaired flag.
var PostFamilies = []Family{
	FamilyLibraryPost, FamilyPage, FamilyOpinionPost, FamilyHubPost, FamilyNewsPost,
}

// AllFamilies lists every known family.
var AllFamilies = append(append([]Family{}, BasicFamilies...), PostFamilies...)

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	for _, known := range AllFamilies {
		if f == known {
			return true
		}
	}
	return false
}

// IsPost reports whether f is one of the post families.
func (f Family) IsPost() bool {
	for _, p := range PostFamilies {
		if f == p {
			return true
		}
	}
	return false
}
