package models

// TargetRecord is what the target CMS returns after a create. The core only
// reads the id and link back; target records are otherwise owned by the
// target system.
type TargetRecord struct {
	ID        int64  `json:"id"`
	Link      string `json:"link,omitempty"`
	SourceURL string `json:"source_url,omitempty"` // media items only
	Content   string `json:"content,omitempty"`
}

// TargetPost is the payload for creating a post or page in the target CMS.
type TargetPost struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Status     string  `json:"status"`
	Author     int64   `json:"author"`
	Date       string  `json:"date,omitempty"`
	Categories []int64 `json:"categories,omitempty"`
	Tags       []int64 `json:"tags,omitempty"`
}

// TargetTerm is the payload for creating a taxonomy term in the target CMS.
type TargetTerm struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parent      int64  `json:"parent,omitempty"`
}

// TargetUser is the payload for creating a user in the target CMS.
type TargetUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
