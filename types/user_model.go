package types

import "time"

// User is the stored profile document keyed by the identity provider's uid.
type User struct {
	Id         string    `firestore:"id" json:"id"`
	Name       string    `firestore:"name" json:"name"`
	Age        int       `firestore:"age" json:"age"`
	Contact    string    `firestore:"contact" json:"contact"`
	Email      string    `firestore:"email" json:"email"`
	Followers  []string  `firestore:"followers" json:"followers"`
	Following  []string  `firestore:"following" json:"following"`
	Posts      []string  `firestore:"posts" json:"posts"`
	SavedPosts []string  `firestore:"savedPosts" json:"savedPosts"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Followers = cloneStrings(u.Followers)
	c.Following = cloneStrings(u.Following)
	c.Posts = cloneStrings(u.Posts)
	c.SavedPosts = cloneStrings(u.SavedPosts)
	return &c
}
