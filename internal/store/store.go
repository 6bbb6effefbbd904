// Package store is the persistence gateway: one generic CRUD contract plus
// the entity-specific queries built on top of it.
package store

import (
	"quill/internal/models"
)

type Store struct {
	Users      Users
	Posts      Posts
	Comments   Comments
	Tags       Tags
	Categories Categories
	Contacts   Contacts
	Likes      Likes
	Follows    Follows
}

func New() *Store {
	tags := Tags{CRUD: NewCRUD[models.Tag, TagCreate, TagPatch]("tag")}
	return &Store{
		Users:      Users{CRUD: NewCRUD[models.User, UserCreate, UserPatch]("user")},
		Posts:      Posts{CRUD: NewCRUD[models.Post, PostCreate, PostPatch]("post"), tags: tags},
		Comments:   Comments{CRUD: NewCRUD[models.Comment, CommentCreate, CommentPatch]("comment")},
		Tags:       tags,
		Categories: Categories{CRUD: NewCRUD[models.Category, CategoryCreate, CategoryPatch]("category")},
		Contacts:   Contacts{CRUD: NewCRUD[models.Contact, ContactCreate, ContactPatch]("contact")},
	}
}
