package types

import "time"

// UserSummary is the public slice of a user embedded in other views.
type UserSummary struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CommentView struct {
	Id        string      `json:"id"`
	User      UserSummary `json:"user"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// PostView is the actor-relative projection of a post returned to clients. MediaURL is
// null when the post has no usable primary media.
type PostView struct {
	PostId        string        `json:"postId"`
	Description   string        `json:"description"`
	Media         []string      `json:"media"`
	MediaURL      *string       `json:"mediaURL"`
	HasMedia      bool          `json:"hasMedia"`
	User          UserSummary   `json:"user"`
	LikesCount    int           `json:"likesCount"`
	CommentsCount int           `json:"commentsCount"`
	IsLiked       bool          `json:"isLiked"`
	IsSaved       bool          `json:"isSaved"`
	IsFollowing   bool          `json:"isFollowing"`
	Comments      []CommentView `json:"comments,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type UserView struct {
	User           *User `json:"user"`
	FollowersCount int   `json:"followersCount"`
	FollowingCount int   `json:"followingCount"`
}

// PublicProfile is what other users see of a profile. Membership sets are reduced to
// counts and private fields are left out.
type PublicProfile struct {
	UserSummary
	PostsCount     int       `json:"postsCount"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToggleResult is the post-operation state of a membership toggle.
type ToggleResult struct {
	Active bool
	Count  int
}

// Connections is a followers or following listing.
type Connections struct {
	Count int           `json:"count"`
	Users []UserSummary `json:"users"`
}
