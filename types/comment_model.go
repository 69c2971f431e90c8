package types

import "time"

type Comment struct {
	Id         string    `firestore:"id" json:"id"`
	AuthorId   string    `firestore:"authorId" json:"authorId"`
	AuthorName string    `firestore:"authorName" json:"authorName"`
	Content    string    `firestore:"content" json:"content"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt" json:"updatedAt"`
}
