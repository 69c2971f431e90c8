package types

import "time"

// Post is the stored post document. Likes and Comments are the source of truth for the
// counts shown to clients; no counter is persisted next to them.
type Post struct {
	Id          string    `firestore:"id" json:"id"`
	Description string    `firestore:"description" json:"description"`
	Media       []string  `firestore:"media" json:"media"`
	MediaPaths  []string  `firestore:"mediaPaths" json:"-"`
	OwnerId     string    `firestore:"ownerId" json:"ownerId"`
	Likes       []string  `firestore:"likes" json:"-"`
	Comments    []Comment `firestore:"comments" json:"comments"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func (p *Post) LikesCount() int {
	return len(p.Likes)
}

func (p *Post) CommentsCount() int {
	return len(p.Comments)
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Media = cloneStrings(p.Media)
	c.MediaPaths = cloneStrings(p.MediaPaths)
	c.Likes = cloneStrings(p.Likes)
	if p.Comments != nil {
		c.Comments = make([]Comment, len(p.Comments))
		copy(c.Comments, p.Comments)
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
