package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
)

// --- Mock Repository ---

type mockCommentRepo struct {
	comments map[int64]*Comment
	posts    map[int64]bool
	nextID   int64

	listFn func(ctx context.Context, postID int64, ordering string, offset, limit int) ([]Comment, int, error)
}

func newMockCommentRepo(postIDs ...int64) *mockCommentRepo {
	m := &mockCommentRepo{comments: make(map[int64]*Comment), posts: make(map[int64]bool), nextID: 1}
	for _, id := range postIDs {
		m.posts[id] = true
	}
	return m
}

func (m *mockCommentRepo) Create(ctx context.Context, c *Comment) error {
	if !m.posts[c.PostID] {
		return ErrPostNotFound
	}
	c.ID = m.nextID
	m.nextID++
	stored := *c
	stored.AuthorUsername = "someone"
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.comments[c.ID] = &stored
	return nil
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id int64) (*Comment, error) {
	if c, ok := m.comments[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, apperror.NewNotFound("Comment not found.")
}

func (m *mockCommentRepo) UpdateText(ctx context.Context, id int64, text string) error {
	m.comments[id].Text = text
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NewNotFound("Comment not found.")
	}
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepo) List(ctx context.Context, postID int64, ordering string, offset, limit int) ([]Comment, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, postID, ordering, offset, limit)
	}
	var out []Comment
	for _, c := range m.comments {
		if postID == 0 || c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

// --- Helpers ---

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func assertFieldMessage(t *testing.T, err error, field, message string) {
	t.Helper()
	assertAppError(t, err, 400)
	var appErr *apperror.AppError
	errors.As(err, &appErr)
	msgs := appErr.Fields[field]
	if len(msgs) != 1 || msgs[0] != message {
		t.Errorf("expected %s error %q, got %v", field, message, appErr.Fields)
	}
}

func member(userID, profileID int64) *access.Principal {
	return &access.Principal{
		UserID: userID, Username: "member", Authenticated: true,
		Profile: &access.ProfileRef{ID: profileID, Role: access.RoleUser},
	}
}

func manager() *access.Principal {
	return &access.Principal{
		UserID: 1, Username: "boss", Authenticated: true,
		Profile: &access.ProfileRef{ID: 100, Role: access.RoleManager},
	}
}

func int64Ptr(v int64) *int64 { return &v }
func strPtr(s string) *string { return &s }

func newComment(post int64, text string) CommentRequest {
	return CommentRequest{Post: int64Ptr(post), Text: strPtr(text)}
}

// --- Create ---

func TestCreate_AnyAuthenticatedCaller(t *testing.T) {
	svc := NewCommentService(newMockCommentRepo(7))

	c, err := svc.Create(context.Background(), member(2, 20), newComment(7, "Great post!"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AuthorID != 20 || c.PostID != 7 || c.ReplyToID != nil {
		t.Errorf("unexpected comment %+v", c)
	}
}

func TestCreate_Anonymous(t *testing.T) {
	svc := NewCommentService(newMockCommentRepo(7))
	_, err := svc.Create(context.Background(), access.Anonymous(), newComment(7, "Great post!"))
	assertAppError(t, err, 401)
}

func TestCreate_NoProfile(t *testing.T) {
	svc := NewCommentService(newMockCommentRepo(7))
	p := &access.Principal{UserID: 5, Username: "ghost", Authenticated: true}
	_, err := svc.Create(context.Background(), p, newComment(7, "Great post!"))
	assertFieldMessage(t, err, "author", "Authentication required.")
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     CommentRequest
		field   string
		message string
	}{
		{"missing post", CommentRequest{Text: strPtr("Hello there")}, "post", "This field is required."},
		{"missing text", CommentRequest{Post: int64Ptr(7)}, "text", "This field is required."},
		{"short text", newComment(7, "hey"), "text", "Ensure this field has at least 5 characters."},
		{"long text", newComment(7, strings.Repeat("a", 501)), "text", "Ensure this field has no more than 500 characters."},
		{"markup only", newComment(7, "<b></b>"), "text", "This field may not be blank."},
		{"unknown post", newComment(99, "Hello there"), "post", `Invalid pk "99" - object does not exist.`},
		{"negative post", newComment(-5, "Hello there"), "post", `Invalid pk "-5" - object does not exist.`},
		{"negative reply", CommentRequest{Post: int64Ptr(7), Text: strPtr("Hello there"), ReplyTo: int64Ptr(-1)},
			"reply_to", `Invalid pk "-1" - object does not exist.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCommentService(newMockCommentRepo(7))
			_, err := svc.Create(context.Background(), member(2, 20), tt.req)
			assertFieldMessage(t, err, tt.field, tt.message)
		})
	}
}

func TestCreate_Reply(t *testing.T) {
	repo := newMockCommentRepo(7, 8)
	svc := NewCommentService(repo)
	ctx := context.Background()

	parent, err := svc.Create(ctx, member(2, 20), newComment(7, "First comment"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := newComment(7, "A reply here")
	req.ReplyTo = int64Ptr(parent.ID)
	reply, err := svc.Create(ctx, member(3, 30), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.ReplyToID == nil || *reply.ReplyToID != parent.ID {
		t.Errorf("expected reply to %d, got %v", parent.ID, reply.ReplyToID)
	}

	other := newComment(8, "Wrong thread")
	other.ReplyTo = int64Ptr(parent.ID)
	_, err = svc.Create(ctx, member(3, 30), other)
	assertFieldMessage(t, err, "reply_to", "Reply must reference a comment on the same post.")

	missing := newComment(7, "Dangling reply")
	missing.ReplyTo = int64Ptr(404)
	_, err = svc.Create(ctx, member(3, 30), missing)
	assertFieldMessage(t, err, "reply_to", `Invalid pk "404" - object does not exist.`)
}

// --- Update / Delete ---

func TestUpdate_ManagerOnly(t *testing.T) {
	repo := newMockCommentRepo(7)
	svc := NewCommentService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, member(2, 20), newComment(7, "Original text"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Authors cannot edit their own comments.
	_, err = svc.Update(ctx, member(2, 20), c.ID, CommentRequest{Text: strPtr("Edited text")})
	assertAppError(t, err, 403)

	updated, err := svc.Update(ctx, manager(), c.ID, CommentRequest{Text: strPtr("Moderated text")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Text != "Moderated text" {
		t.Errorf("expected moderated text, got %q", updated.Text)
	}
}

func TestDelete_ManagerOnly(t *testing.T) {
	repo := newMockCommentRepo(7)
	svc := NewCommentService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, member(2, 20), newComment(7, "Delete me please"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertAppError(t, svc.Delete(ctx, member(2, 20), c.ID), 403)
	assertAppError(t, svc.Delete(ctx, access.Anonymous(), c.ID), 401)

	if err := svc.Delete(ctx, manager(), c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertAppError(t, svc.Delete(ctx, manager(), c.ID), 404)
}

// --- Read ---

func TestList_PublicAndFiltered(t *testing.T) {
	repo := newMockCommentRepo(7, 8)
	svc := NewCommentService(repo)
	ctx := context.Background()

	_, _ = svc.Create(ctx, member(2, 20), newComment(7, "On seven"))
	_, _ = svc.Create(ctx, member(2, 20), newComment(8, "On eight"))

	items, total, err := svc.List(ctx, 7, "", pagination.ListOptions{Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].PostID != 7 {
		t.Errorf("expected only the comment on post 7, got %+v", items)
	}
}

func TestList_StoreFailure(t *testing.T) {
	repo := newMockCommentRepo()
	repo.listFn = func(context.Context, int64, string, int, int) ([]Comment, int, error) {
		return nil, 0, errors.New("db down")
	}
	_, _, err := NewCommentService(repo).List(context.Background(), 0, "", pagination.ListOptions{Page: 1})
	assertAppError(t, err, 500)
}

func TestOrderBy(t *testing.T) {
	tests := map[string][]string{
		"":               {"c.id DESC"},
		"id":             {"c.id ASC"},
		"-created_at":    {"c.created_at DESC"},
		"created_at,-id": {"c.created_at ASC", "c.id DESC"},
		"text":           {"c.id DESC"},
	}
	for in, want := range tests {
		got := orderBy(in)
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("orderBy(%q) = %v, want %v", in, got, want)
		}
	}
}
