package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/store"
	"quill/internal/tasks"
	"quill/internal/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const digestWindow = 7 * 24 * time.Hour

// Newsletter builds the weekly digest: for every category with new posts,
// one email job per subscribed contact.
type Newsletter struct {
	db         *gorm.DB
	store      *store.Store
	queue      tasks.Queue
	serverHost string
	log        *zap.Logger
	now        func() time.Time
}

func NewNewsletter(db *gorm.DB, st *store.Store, queue tasks.Queue, serverHost string, log *zap.Logger) *Newsletter {
	return &Newsletter{
		db:         db,
		store:      st,
		queue:      queue,
		serverHost: strings.TrimRight(serverHost, "/"),
		log:        log,
		now:        time.Now,
	}
}

// Schedule registers the digest on c under a standard five-field spec.
func (n *Newsletter) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := n.Run(ctx); err != nil {
			n.log.Error("newsletter run failed", zap.Error(err))
		}
	})
	return err
}

// Run enqueues the digest and returns the number of jobs queued.
func (n *Newsletter) Run(ctx context.Context) (int, error) {
	tx := n.db.WithContext(ctx)
	since := n.now().UTC().Add(-digestWindow)

	var categories []models.Category
	if err := tx.Order("id ASC").Find(&categories).Error; err != nil {
		return 0, err
	}

	queued := 0
	for _, category := range categories {
		posts, err := n.store.Posts.PublishedSince(tx, category.ID, since)
		if err != nil {
			return queued, err
		}
		if len(posts) == 0 {
			continue
		}
		contacts, err := n.store.Contacts.ByCategory(tx, category.ID)
		if err != nil {
			return queued, err
		}
		if len(contacts) == 0 {
			continue
		}

		digest, err := json.Marshal(n.digest(posts))
		if err != nil {
			return queued, err
		}
		for _, contact := range contacts {
			err := n.queue.Enqueue(ctx, tasks.Job{Name: tasks.JobNewsletterEmail, Payload: map[string]string{
				"email":    contact.Email,
				"category": category.Name,
				"posts":    string(digest),
			}})
			if err != nil {
				n.log.Error("enqueue newsletter", zap.String("email", contact.Email), zap.Error(err))
				continue
			}
			queued++
		}
	}

	n.log.Info("newsletter queued", zap.Int("jobs", queued))
	return queued, nil
}

func (n *Newsletter) digest(posts []models.Post) []DigestPost {
	out := make([]DigestPost, len(posts))
	for i, post := range posts {
		out[i] = DigestPost{
			Title:   post.Title,
			Link:    PostURL(n.serverHost, post.Slug),
			Excerpt: utils.Excerpt(post.Text, 200),
		}
	}
	return out
}
