package nav

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electoral-app/internal/models"
)

func TestVisibleNavigation_Table(t *testing.T) {
	tests := []struct {
		role models.Role
		want Visibility
	}{
		{models.RoleUser, Visibility{Profile: true, Emergency: true}},
		{models.RoleElectoralSection, Visibility{Profile: true, Emergency: true, Messages: true}},
		{models.RoleAdmin, Visibility{Profile: true, Emergency: true, Messages: true, Admin: true}},
		{models.Role("guest"), Visibility{Profile: true, Emergency: true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got := VisibleNavigation(tt.role)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Messages, got.Shows(PageMessages))
			assert.Equal(t, tt.want.Admin, got.Shows(PageAdmin))
			assert.False(t, got.Shows(Page("settings")))
		})
	}
}

func TestRouter_ShowMainAppLandsOnProfile(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, ScreenLoading, r.Screen())

	r.ShowMainApp(models.RoleAdmin)
	require.NoError(t, r.NavigateTo(context.Background(), PageAdmin))
	assert.Equal(t, PageAdmin, r.Current())

	r.OnAuthenticated(&models.User{Role: models.RoleAdmin})
	assert.Equal(t, ScreenMain, r.Screen())
	assert.Equal(t, PageProfile, r.Current())

	r.OnSignedOut()
	assert.Equal(t, ScreenAuth, r.Screen())
	assert.Equal(t, Visibility{}, r.Visibility())
}

func TestRouter_LoadersRunOnEnter(t *testing.T) {
	r := NewRouter()
	var entered []Page
	r.OnEnter(PageMessages, func(ctx context.Context) error {
		entered = append(entered, PageMessages)
		return nil
	})
	r.OnEnter(PageAdmin, func(ctx context.Context) error {
		entered = append(entered, PageAdmin)
		return errors.New("stats unavailable")
	})
	r.ShowMainApp(models.RoleAdmin)

	require.NoError(t, r.NavigateTo(context.Background(), PageMessages))
	require.NoError(t, r.NavigateTo(context.Background(), PageMessages))
	require.NoError(t, r.NavigateTo(context.Background(), PageEmergency))

	err := r.NavigateTo(context.Background(), PageAdmin)
	require.Error(t, err)
	assert.Equal(t, PageAdmin, r.Current(), "the page stays active when its load fails")
	assert.Equal(t, []Page{PageMessages, PageMessages, PageAdmin}, entered)
}

func TestRouter_RejectsUnknownAndHiddenPages(t *testing.T) {
	r := NewRouter()

	err := r.NavigateTo(context.Background(), PageProfile)
	assert.ErrorIs(t, err, ErrPageHidden, "no page is reachable while signed out")

	r.ShowMainApp(models.RoleUser)
	assert.ErrorIs(t, r.NavigateTo(context.Background(), Page("settings")), ErrUnknownPage)
	assert.ErrorIs(t, r.NavigateTo(context.Background(), PageMessages), ErrPageHidden)
	assert.ErrorIs(t, r.NavigateTo(context.Background(), PageAdmin), ErrPageHidden)
	assert.Equal(t, PageProfile, r.Current())

	require.NoError(t, r.NavigateTo(context.Background(), PageEmergency))
	assert.Equal(t, PageEmergency, r.Current())
}

func TestParsePage(t *testing.T) {
	p, ok := ParsePage("messages")
	assert.True(t, ok)
	assert.Equal(t, PageMessages, p)
	assert.Equal(t, "Mensajes", p.Label())

	_, ok = ParsePage("Messages")
	assert.False(t, ok)
}
