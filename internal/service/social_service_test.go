package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/dom/tekky-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_FeedPaging(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	services, repos, _ := newTestServices(t, service.WithClock(clock.Now))
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().Build(t, repos.User)

	var created []uuid.UUID
	for i := 0; i < 5; i++ {
		post, err := services.Post.Create(ctx, author.ID, "post "+string(rune('a'+i)))
		require.NoError(t, err)
		created = append(created, post.ID)
		clock.Advance(time.Minute)
	}

	page, err := services.Post.Feed(ctx, nil, domain.PostFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, created[4], page.Posts[0].ID)
	assert.Equal(t, created[3], page.Posts[1].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, created[3], *page.NextCursor)

	page, err = services.Post.Feed(ctx, nil, domain.PostFilter{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, created[2], page.Posts[0].ID)
	assert.Equal(t, created[1], page.Posts[1].ID)

	page, err = services.Post.Feed(ctx, nil, domain.PostFilter{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, created[0], page.Posts[0].ID)

	page, err = services.Post.Feed(ctx, nil, domain.PostFilter{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Nil(t, page.NextCursor)

	unknown := uuid.New()
	_, err = services.Post.Feed(ctx, nil, domain.PostFilter{Cursor: &unknown})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Invalid cursor", domain.Message(err, ""))
}

func TestPostService_Create(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().WithName("Ann").Build(t, repos.User)

	tests := []struct {
		name        string
		content     string
		wantContent string
		wantErr     error
	}{
		{name: "plain text", content: "hello world", wantContent: "hello world"},
		{name: "markup is stripped", content: "<b>bold</b> <script>alert(1)</script>move", wantContent: "bold move"},
		{name: "empty", content: "   ", wantErr: domain.ErrValidation},
		{name: "only markup", content: "<img src=x>", wantErr: domain.ErrValidation},
		{name: "too long", content: strings.Repeat("a", domain.MaxPostLength+1), wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := services.Post.Create(ctx, author.ID, tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, post.Content)
			assert.Equal(t, author.ID, post.AuthorID)
			assert.Equal(t, "Ann", post.AuthorName)
			assert.Equal(t, author.Username, post.AuthorUsername)
			assert.Zero(t, post.LikesCount)
			assert.False(t, post.IsLiked)
		})
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	notifier := &recordingNotifier{}
	services, repos, _ := newTestServices(t, service.WithNotifier(notifier))
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().Build(t, repos.User)
	fan, _ := testutil.NewUserBuilder().Build(t, repos.User)

	post, err := services.Post.Create(ctx, author.ID, "like me")
	require.NoError(t, err)

	liked, err := services.Post.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked.IsLiked)
	assert.Equal(t, int64(1), liked.LikesCount)

	asAuthor, err := services.Post.Get(ctx, post.ID, &author.ID)
	require.NoError(t, err)
	assert.False(t, asAuthor.IsLiked)
	assert.Equal(t, int64(1), asAuthor.LikesCount)

	unliked, err := services.Post.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, unliked.IsLiked)
	assert.Equal(t, int64(0), unliked.LikesCount)

	_, err = services.Post.ToggleLike(ctx, post.ID, author.ID)
	require.NoError(t, err)

	likes := notifier.ofType(domain.NotificationPostLiked)
	require.Len(t, likes, 1, "self likes are not notified")
	assert.Equal(t, author.ID, likes[0].userID)
	assert.Equal(t, fan.ID, likes[0].n.Payload.(domain.PostLikedPayload).By.ID)

	_, err = services.Post.ToggleLike(ctx, uuid.New(), fan.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Post not found", domain.Message(err, ""))
}

func TestCommentService(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	services, repos, _ := newTestServices(t, service.WithClock(clock.Now), service.WithNotifier(notifier))
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().Build(t, repos.User)
	commenter, _ := testutil.NewUserBuilder().Build(t, repos.User)

	post, err := services.Post.Create(ctx, author.ID, "discuss")
	require.NoError(t, err)

	first, err := services.Comment.Create(ctx, post.ID, commenter.ID, "first!")
	require.NoError(t, err)
	assert.Equal(t, commenter.ID, first.Author.ID)
	clock.Advance(time.Second)
	second, err := services.Comment.Create(ctx, post.ID, author.ID, "<i>thanks</i>")
	require.NoError(t, err)
	assert.Equal(t, "thanks", second.Content)

	comments, err := services.Comment.List(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)

	view, err := services.Post.Get(ctx, post.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.CommentsCount)

	commented := notifier.ofType(domain.NotificationPostCommented)
	require.Len(t, commented, 1)
	assert.Equal(t, author.ID, commented[0].userID)

	t.Run("create on unknown post", func(t *testing.T) {
		_, err := services.Comment.Create(ctx, uuid.New(), commenter.ID, "hello")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := services.Comment.Create(ctx, post.ID, commenter.ID, "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("delete by someone else", func(t *testing.T) {
		err := services.Comment.Delete(ctx, first.ID, author.ID)
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, "Not allowed", domain.Message(err, ""))
	})

	t.Run("delete by author", func(t *testing.T) {
		require.NoError(t, services.Comment.Delete(ctx, first.ID, commenter.ID))
		err := services.Comment.Delete(ctx, first.ID, commenter.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, "Comment not found", domain.Message(err, ""))
	})

	t.Run("list of unknown post is empty", func(t *testing.T) {
		comments, err := services.Comment.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}

func TestProfileService_Follow(t *testing.T) {
	notifier := &recordingNotifier{}
	services, repos, _ := newTestServices(t, service.WithNotifier(notifier))
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().Build(t, repos.User)
	bob, _ := testutil.NewUserBuilder().Build(t, repos.User)

	result, err := services.Profile.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &service.FollowResult{Message: "Followed", FollowersCount: 1}, result)

	result, err = services.Profile.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err, "following twice is not an error")
	assert.Equal(t, int64(1), result.FollowersCount)

	followers, err := services.Profile.Followers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].ID)

	following, err := services.Profile.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bob.ID, following[0].ID)

	profile, err := services.Profile.GetProfile(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, service.ProfileCounts{Posts: 0, Followers: 1, Following: 0}, profile.Counts)

	assert.Len(t, notifier.ofType(domain.NotificationNewFollower), 1)

	_, err = services.Profile.Follow(ctx, alice.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Cannot follow yourself", domain.Message(err, ""))

	_, err = services.Profile.Follow(ctx, alice.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	result, err = services.Profile.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &service.FollowResult{Message: "Unfollowed", FollowersCount: 0}, result)

	_, err = services.Profile.Unfollow(ctx, alice.ID, bob.ID)
	assert.NoError(t, err, "unfollow is idempotent")
}

func TestProfileService_UpdateProfile(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithUsername("original").Build(t, repos.User)
	testutil.NewUserBuilder().WithUsername("occupied").Build(t, repos.User)

	str := func(s string) *string { return &s }

	t.Run("partial update", func(t *testing.T) {
		profile, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{
			Bio: str("<p>I build <b>things</b></p>"),
		})
		require.NoError(t, err)
		require.NotNil(t, profile.Bio)
		assert.Equal(t, "I build things", *profile.Bio)
		assert.Equal(t, "original", profile.Username)
	})

	t.Run("rename", func(t *testing.T) {
		profile, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{
			Username: str("renamed"),
			Name:     str("New Name"),
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", profile.Username)
		assert.Equal(t, "New Name", profile.Name)
	})

	t.Run("keeping own username is fine", func(t *testing.T) {
		_, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{Username: str("renamed")})
		assert.NoError(t, err)
	})

	t.Run("username taken", func(t *testing.T) {
		_, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{Username: str("occupied")})
		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, "Username already taken", domain.Message(err, ""))
	})

	t.Run("username too short", func(t *testing.T) {
		_, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{Username: str("x")})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("username shaped like an email", func(t *testing.T) {
		_, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{Username: str("someone@example.com")})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "Invalid username", domain.Message(err, ""))
	})

	t.Run("clearing the bio", func(t *testing.T) {
		profile, err := services.Profile.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{Bio: str("")})
		require.NoError(t, err)
		assert.Nil(t, profile.Bio)
	})
}

func TestIdeaService(t *testing.T) {
	notifier := &recordingNotifier{}
	services, repos, _ := newTestServices(t, service.WithNotifier(notifier))
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, repos.User)
	applicant, _ := testutil.NewUserBuilder().Build(t, repos.User)

	idea, err := services.Idea.Create(ctx, owner.ID, service.IdeaInput{
		Title:       "Study buddy app",
		Description: "Match students by course",
		TechStacks:  []string{"Go", " ", "React"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "React"}, idea.TechStacks)
	assert.Equal(t, []string{}, idea.LookingFor)

	_, err = services.Idea.Create(ctx, owner.ID, service.IdeaInput{Title: "No description"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Missing fields", domain.Message(err, ""))

	interest, err := services.Idea.SendInterest(ctx, idea.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, applicant.ID, interest.UserID)

	_, err = services.Idea.SendInterest(ctx, idea.ID, applicant.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Interest already sent", domain.Message(err, ""))

	_, err = services.Idea.SendInterest(ctx, idea.ID, owner.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "You cannot apply to your own idea", domain.Message(err, ""))

	_, err = services.Idea.SendInterest(ctx, uuid.New(), applicant.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := services.Idea.Get(ctx, idea.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, owner.ID, got.Owner.ID)
	require.Len(t, got.Interests, 1)
	require.NotNil(t, got.Interests[0].User)
	assert.Equal(t, applicant.ID, got.Interests[0].User.ID)

	list, err := services.Idea.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, idea.ID, list[0].ID)

	interests := notifier.ofType(domain.NotificationIdeaInterest)
	require.Len(t, interests, 1)
	assert.Equal(t, owner.ID, interests[0].userID)
}
