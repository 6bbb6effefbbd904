package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"quill/internal/apperr"
	"quill/internal/auth"
	"quill/internal/config"
	"quill/internal/db/dbtest"
	"quill/internal/models"
	"quill/internal/store"
	"quill/internal/tasks"
	"quill/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []tasks.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job tasks.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) named(name string) []tasks.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []tasks.Job
	for _, job := range q.jobs {
		if job.Name == name {
			out = append(out, job)
		}
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	store      *store.Store
	queue      *recordingQueue
	tokens     *auth.TokenManager
	posts      *PostService
	comments   *CommentService
	tags       *TagService
	categories *CategoryService
	users      *UserService
	engagement *EngagementService
	contacts   *ContactService
	newsletter *Newsletter
	mediaDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	st := store.New()
	log := zap.NewNop()
	cache, err := utils.NewCache[PostDetail](64, time.Minute)
	require.NoError(t, err)

	f := &fixture{
		db:       conn,
		store:    st,
		queue:    &recordingQueue{},
		tokens:   auth.NewTokenManager("test-secret", time.Minute, time.Hour),
		mediaDir: t.TempDir(),
	}
	f.posts = NewPostService(conn, st, cache, log)
	f.comments = NewCommentService(conn, st, cache)
	f.tags = NewTagService(conn, st, cache)
	f.categories = NewCategoryService(conn, st, cache)
	f.users = NewUserService(conn, st, f.tokens, f.queue, NewAvatarStore(f.mediaDir, log), true, log)
	f.engagement = NewEngagementService(conn, st)
	f.contacts = NewContactService(conn, st)
	f.newsletter = NewNewsletter(conn, st, f.queue, "http://blog.test/", log)
	return f
}

func (f *fixture) user(t *testing.T, email string, superuser bool) *models.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), UserInput{Email: email, Password: "password1", IsSuperuser: superuser})
	require.NoError(t, err)
	return user
}

func (f *fixture) post(t *testing.T, author *models.User, title string, tags ...string) *models.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), author, PostInput{Title: title, Text: "body of " + title, Tags: tags})
	require.NoError(t, err)
	return post
}

func ptr[T any](v T) *T { return &v }

func TestPostCreateReusesExistingTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	goTag, err := f.tags.Create(ctx, "go")
	require.NoError(t, err)

	post := f.post(t, author, "Tags in Go", "go", "backend")

	require.Len(t, post.Tags, 2)
	byName := map[string]uint{}
	for _, tag := range post.Tags {
		byName[tag.Name] = tag.ID
	}
	assert.Equal(t, goTag.ID, byName["go"])
	assert.NotZero(t, byName["backend"])
	assert.Equal(t, "tags-in-go", post.Slug)
	assert.Equal(t, author.ID, post.UserID)
}

func TestPostDuplicateTitlesGetDistinctSlugs(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author@example.com", false)

	a := f.post(t, author, "Hello World")
	b := f.post(t, author, "Hello World")

	assert.NotEqual(t, a.Slug, b.Slug)
}

func TestPostCreateRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author@example.com", false)

	_, err := f.posts.Create(context.Background(), author, PostInput{Title: "x", Text: "y", CategoryID: ptr(uint(99))})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.posts.Create(context.Background(), author, PostInput{Title: "   ", Text: "y"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPostCategoryCanBeCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	news, err := f.categories.Create(ctx, author, "News")
	require.NoError(t, err)

	post, err := f.posts.Create(ctx, author, PostInput{Title: "Filed", Text: "x", CategoryID: &news.ID})
	require.NoError(t, err)
	require.NotNil(t, post.CategoryID)

	// absent category leaves it alone
	post, err = f.posts.Update(ctx, author, post.ID, PostUpdate{Title: ptr("Still filed")})
	require.NoError(t, err)
	require.NotNil(t, post.CategoryID)
	assert.Equal(t, news.ID, *post.CategoryID)

	post, err = f.posts.Update(ctx, author, post.ID, PostUpdate{CategoryID: ptr(uint(0))})
	require.NoError(t, err)
	assert.Nil(t, post.CategoryID)
	assert.Nil(t, post.Category)

	detail, err := f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	assert.Nil(t, detail.CategoryID)
}

func TestPostDeleteByNonOwnerIsDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	stranger := f.user(t, "stranger@example.com", false)
	admin := f.user(t, "admin@example.com", true)
	post := f.post(t, author, "Mine")

	_, err := f.posts.Delete(ctx, stranger, post.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))

	_, err = f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err, "post must remain")

	removed, err := f.posts.Delete(ctx, admin, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, removed.ID)

	_, err = f.posts.Get(ctx, post.Slug, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPostUpdateRefreshesCachedDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	stranger := f.user(t, "stranger@example.com", false)
	post := f.post(t, author, "Draft", "go")

	detail, err := f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	assert.Contains(t, detail.TextHTML, "body of Draft")

	_, err = f.posts.Update(ctx, stranger, post.ID, PostUpdate{Title: ptr("Hijacked")})
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))

	updated, err := f.posts.Update(ctx, author, post.ID, PostUpdate{Text: ptr("**new**"), Tags: &[]string{}})
	require.NoError(t, err)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, post.Slug, updated.Slug)
	assert.Empty(t, updated.Tags)

	detail, err = f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	assert.Contains(t, detail.TextHTML, "<strong>new</strong>")
	assert.Empty(t, detail.Tags)
}

func TestPostDetailShowsPublicAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "ada@example.com", false)
	post := f.post(t, author, "Notes")

	detail, err := f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	require.NotNil(t, detail.Author)
	assert.Equal(t, author.ID, detail.Author.ID)

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ada@example.com")
	assert.NotContains(t, string(raw), "is_superuser")
	assert.NotContains(t, string(raw), "last_login")

	// the detail is cached, the author is not
	_, err = f.users.UpdateMe(ctx, author, UserUpdate{FullName: ptr("Ada Lovelace")})
	require.NoError(t, err)
	detail, err = f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", detail.Author.FullName)
}

func TestPostLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	reader := f.user(t, "reader@example.com", false)
	post := f.post(t, author, "Likeable")

	_, err := f.posts.Get(ctx, post.Slug, reader)
	require.NoError(t, err)

	summary, err := f.posts.Like(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeSummary{Count: 1, HasLiked: true}, summary)

	summary, err = f.posts.Like(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)

	detail, err := f.posts.Get(ctx, post.Slug, reader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Likes)
	assert.True(t, detail.HasLiked)

	detail, err = f.posts.Get(ctx, post.Slug, author)
	require.NoError(t, err)
	assert.False(t, detail.HasLiked)

	summary, err = f.posts.Unlike(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeSummary{Count: 0, HasLiked: false}, summary)

	anon, err := f.posts.Likes(ctx, post.Slug, nil)
	require.NoError(t, err)
	assert.Zero(t, anon.Count)

	_, err = f.posts.Like(ctx, reader, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCommentThreads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	post := f.post(t, author, "Threaded")
	other := f.post(t, author, "Elsewhere")

	root, err := f.comments.Create(ctx, author, post.ID, "root")
	require.NoError(t, err)
	_, err = f.comments.Reply(ctx, author, post.ID, root.ID, "reply one")
	require.NoError(t, err)
	_, err = f.comments.Reply(ctx, author, post.ID, root.ID, "reply two")
	require.NoError(t, err)

	_, err = f.comments.Reply(ctx, author, other.ID, root.ID, "misplaced")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.comments.Reply(ctx, author, post.ID, 999, "orphan")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := f.comments.List(ctx, 0, 10, &post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Replies, 2)

	detail, err := f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Len(t, detail.Comments[0].Replies, 2)
}

func TestCommentUpdateAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author@example.com", false)
	stranger := f.user(t, "stranger@example.com", false)
	post := f.post(t, author, "Post")
	comment, err := f.comments.Create(ctx, author, post.ID, "before")
	require.NoError(t, err)

	_, err = f.comments.Update(ctx, stranger, comment.ID, CommentUpdate{Text: ptr("nope")})
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))

	updated, err := f.comments.Update(ctx, author, comment.ID, CommentUpdate{Text: ptr("after")})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Text)
	assert.Equal(t, author.ID, updated.UserID)
	assert.Equal(t, comment.PostID, updated.PostID)

	_, err = f.comments.Delete(ctx, stranger, comment.ID)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	_, err = f.comments.Delete(ctx, author, comment.ID)
	require.NoError(t, err)
	_, err = f.comments.Get(ctx, comment.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", false)
	stranger := f.user(t, "stranger@example.com", false)

	cat, err := f.categories.Create(ctx, owner, "Go Tips")
	require.NoError(t, err)
	assert.Equal(t, "go-tips", cat.Slug)
	again, err := f.categories.Create(ctx, owner, "Go Tips")
	require.NoError(t, err)
	assert.NotEqual(t, cat.Slug, again.Slug)

	got, err := f.categories.Get(ctx, "go-tips")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)

	_, err = f.categories.Update(ctx, stranger, cat.ID, "Renamed")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	renamed, err := f.categories.Update(ctx, owner, cat.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)
	assert.Equal(t, "go-tips", renamed.Slug)

	post, err := f.posts.Create(ctx, owner, PostInput{Title: "In category", Text: "x", CategoryID: &cat.ID})
	require.NoError(t, err)
	_, err = f.categories.Delete(ctx, owner, cat.ID)
	require.NoError(t, err)

	detail, err := f.posts.Get(ctx, post.Slug, nil)
	require.NoError(t, err)
	assert.Nil(t, detail.CategoryID)
}

func TestTagService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag, err := f.tags.Create(ctx, "go")
	require.NoError(t, err)
	_, err = f.tags.Create(ctx, "go")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.tags.Create(ctx, " ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	renamed, err := f.tags.Update(ctx, tag.ID, "golang")
	require.NoError(t, err)
	assert.Equal(t, "golang", renamed.Name)

	list, err := f.tags.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.tags.Delete(ctx, tag.ID)
	require.NoError(t, err)
	_, err = f.tags.Get(ctx, tag.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFollowRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada@example.com", false)
	bob := f.user(t, "bob@example.com", false)

	_, err := f.engagement.Follow(ctx, ada, ada.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.engagement.Follow(ctx, ada, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	state, err := f.engagement.Follow(ctx, ada, bob.ID)
	require.NoError(t, err)
	assert.True(t, state.Following)

	followers, err := f.engagement.Followers(ctx, bob.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, ada.ID, followers[0].ID)

	state, err = f.engagement.Unfollow(ctx, ada, bob.ID)
	require.NoError(t, err)
	assert.False(t, state.Following)

	following, err := f.engagement.Following(ctx, ada.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", false)
	cat, err := f.categories.Create(ctx, owner, "News")
	require.NoError(t, err)

	_, err = f.contacts.Subscribe(ctx, cat.ID, "not-an-email")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.contacts.Subscribe(ctx, 999, "reader@example.com")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	contact, err := f.contacts.Subscribe(ctx, cat.ID, "Reader@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", contact.Email)

	_, err = f.contacts.Subscribe(ctx, cat.ID, "reader@example.com")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUserAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t, "Ada@Example.com", false)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.True(t, user.IsActive)
	require.Len(t, f.queue.named(tasks.JobNewAccountEmail), 1)

	_, err := f.users.Create(ctx, UserInput{Email: "ada@example.com", Password: "password1"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.users.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = f.users.Login(ctx, "nobody@example.com", "password1")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	token, err := f.users.Login(ctx, "ada@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	me, err := f.users.Authenticate(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
	assert.NotNil(t, me.LastLogin)

	_, err = f.users.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	inactive, err := f.users.Create(ctx, UserInput{Email: "off@example.com", Password: "password1", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)
	_, err = f.users.Login(ctx, "off@example.com", "password1")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
}

func TestUserVisibilityAndUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada@example.com", false)
	bob := f.user(t, "bob@example.com", false)
	admin := f.user(t, "admin@example.com", true)

	_, err := f.users.Get(ctx, ada, bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	got, err := f.users.Get(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.Email, got.Email)

	me, err := f.users.UpdateMe(ctx, ada, UserUpdate{FullName: ptr("Ada L."), IsSuperuser: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", me.FullName)
	assert.False(t, me.IsSuperuser, "self-service cannot grant roles")

	promoted, err := f.users.UpdateUser(ctx, bob.ID, UserUpdate{IsStaff: ptr(true)})
	require.NoError(t, err)
	assert.True(t, promoted.IsStaff)

	_, err = f.users.UpdateMe(ctx, ada, UserUpdate{Password: ptr("another-pass")})
	require.NoError(t, err)
	_, err = f.users.Login(ctx, "ada@example.com", "another-pass")
	assert.NoError(t, err)
}

func TestMultibytePasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("é", 40)

	_, err := f.users.Create(ctx, UserInput{Email: "long@example.com", Password: long})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	ada := f.user(t, "ada@example.com", false)
	_, err = f.users.UpdateMe(ctx, ada, UserUpdate{Password: &long})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRegisterHonorsOpenRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, "new@example.com", "password1", "New")
	require.NoError(t, err)
	assert.False(t, user.IsSuperuser)

	f.users.openRegistration = false
	_, err = f.users.Register(ctx, "late@example.com", "password1", "Late")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
}

func TestPasswordRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ada@example.com", false)

	require.NoError(t, f.users.RecoverPassword(ctx, "nobody@example.com"))
	assert.Empty(t, f.queue.named(tasks.JobResetPasswordEmail))

	require.NoError(t, f.users.RecoverPassword(ctx, "ada@example.com"))
	jobs := f.queue.named(tasks.JobResetPasswordEmail)
	require.Len(t, jobs, 1)
	token := jobs[0].Payload["token"]
	require.NotEmpty(t, token)

	assert.True(t, apperr.Is(f.users.ResetPassword(ctx, "bad-token", "x"), apperr.KindValidation))
	require.NoError(t, f.users.ResetPassword(ctx, token, "brand-new-pass"))

	_, err := f.users.Login(ctx, "ada@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestSetAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada@example.com", false)

	user, err := f.users.SetAvatar(ctx, ada, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.NotNil(t, user.Avatar)
	assert.True(t, strings.HasSuffix(*user.Avatar, ".png"))
	first := filepath.Join(f.mediaDir, *user.Avatar)
	assert.FileExists(t, first)

	user, err = f.users.SetAvatar(ctx, ada, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.mediaDir, *user.Avatar))
	assert.NoFileExists(t, first, "previous avatar is removed")

	_, err = f.users.SetAvatar(ctx, ada, strings.NewReader("plain text, not an image"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxAvatarSize)...)
	_, err = f.users.SetAvatar(ctx, ada, bytes.NewReader(big))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	entries, err := os.ReadDir(f.mediaDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewsletterQueuesOneJobPerContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", false)
	news, err := f.categories.Create(ctx, owner, "News")
	require.NoError(t, err)
	quiet, err := f.categories.Create(ctx, owner, "Quiet")
	require.NoError(t, err)

	_, err = f.posts.Create(ctx, owner, PostInput{Title: "Fresh", Text: "hot off the press", CategoryID: &news.ID})
	require.NoError(t, err)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := f.contacts.Subscribe(ctx, news.ID, email)
		require.NoError(t, err)
	}
	_, err = f.contacts.Subscribe(ctx, quiet.ID, "c@example.com")
	require.NoError(t, err)

	queued, err := f.newsletter.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	jobs := f.queue.named(tasks.JobNewsletterEmail)
	require.Len(t, jobs, 2)
	assert.Equal(t, "News", jobs[0].Payload["category"])
	assert.Contains(t, jobs[0].Payload["posts"], "http://blog.test/api/v1/post/fresh")

	f.newsletter.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	queued, err = f.newsletter.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued, "posts older than a week are not sent")
}

type sentMail struct {
	addr string
	to   []string
	msg  string
}

func newTestMail(t *testing.T, enabled bool) (*MailService, *[]sentMail) {
	t.Helper()
	cfg := &config.Config{ServerHost: "http://blog.test", ResetTokenHours: 5}
	cfg.SMTP = config.SMTP{FromName: "Quill", From: "noreply@blog.test"}
	if enabled {
		cfg.SMTP.Host, cfg.SMTP.Port = "smtp.blog.test", "25"
	}

	var sent []sentMail
	m := NewMailService(cfg, zap.NewNop())
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, to: to, msg: string(msg)})
		return nil
	}
	return m, &sent
}

func TestMailJobsRenderAndSend(t *testing.T) {
	m, sent := newTestMail(t, true)
	reg := tasks.NewRegistry(zap.NewNop())
	m.Register(reg)
	ctx := context.Background()

	require.NoError(t, reg.Dispatch(ctx, tasks.Job{Name: tasks.JobResetPasswordEmail, Payload: map[string]string{
		"email": "ada@example.com", "token": "tok123",
	}}))
	require.NoError(t, reg.Dispatch(ctx, tasks.Job{Name: tasks.JobNewsletterEmail, Payload: map[string]string{
		"email": "ada@example.com", "category": "News",
		"posts": `[{"title":"Fresh","link":"http://blog.test/api/v1/post/fresh","excerpt":"hot"}]`,
	}}))

	require.Len(t, *sent, 2)
	assert.Equal(t, "smtp.blog.test:25", (*sent)[0].addr)
	assert.Equal(t, []string{"ada@example.com"}, (*sent)[0].to)
	assert.Contains(t, (*sent)[0].msg, "reset-password?token=tok123")
	assert.Contains(t, (*sent)[0].msg, "valid for 5 hours")
	assert.Contains(t, (*sent)[1].msg, "This week in News")
	assert.Contains(t, (*sent)[1].msg, "http://blog.test/api/v1/post/fresh")

	err := reg.Dispatch(ctx, tasks.Job{Name: tasks.JobNewsletterEmail, Payload: map[string]string{"posts": "{"}})
	assert.Error(t, err)
}

func TestMailDisabledSendsNothing(t *testing.T) {
	m, sent := newTestMail(t, false)
	require.NoError(t, m.SendNewAccountEmail("ada@example.com", "Ada"))
	assert.Empty(t, *sent)
}
