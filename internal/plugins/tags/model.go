// Package tags manages post categories. Tag names are case-insensitively
// unique; posts reference tags through the post_tags join table. Besides
// manager CRUD the package provides the tag resolver used when posts are
// written, and the public tag suggestion endpoint.
package tags

// maxNameLen is the longest tag name accepted, in characters.
const maxNameLen = 40

// suggestLimit caps the tag suggestion list.
const suggestLimit = 10

// Tag is a category label attached to posts.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Suggestion is a tag with the number of posts using it.
type Suggestion struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TagRequest is the body of tag create and update requests.
type TagRequest struct {
	Name string `json:"name"`
}
