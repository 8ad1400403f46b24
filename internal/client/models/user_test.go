package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testPrincipal() *Principal {
	return &Principal{
		UID:           "u-1",
		Email:         "a@b.com",
		DisplayName:   "Alice",
		EmailVerified: true,
		Metadata: Metadata{
			CreationTime:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			LastSignInTime: time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC),
		},
	}
}

func TestMergeUser_NilDocumentDefaultsRole(t *testing.T) {
	u := MergeUser(testPrincipal(), nil)

	require.Equal(t, DefaultRole, u.Role)
	require.Equal(t, "u-1", u.UID)
	require.Equal(t, "Alice", u.DisplayName)
	require.Nil(t, u.PhotoURL)
}

func TestMergeUser_DocumentOverridesRoleAndName(t *testing.T) {
	role := RoleInterviewer
	doc := &ProfileDocument{Role: &role, DisplayName: "Dr. Alice"}

	u := MergeUser(testPrincipal(), doc)

	require.Equal(t, RoleInterviewer, u.Role)
	require.Equal(t, "Dr. Alice", u.DisplayName)
}

func TestMergeUser_InvalidRoleFallsBack(t *testing.T) {
	bogus := Role("superuser")
	u := MergeUser(testPrincipal(), &ProfileDocument{Role: &bogus})

	require.Equal(t, DefaultRole, u.Role)
}

func TestMergeUser_PhotoURLAlwaysNil(t *testing.T) {
	photo := "https://cdn.example.com/x.png"
	u := MergeUser(testPrincipal(), &ProfileDocument{PhotoURL: &photo})

	require.Nil(t, u.PhotoURL, "photo URL is normalized to nil by policy")
}

func TestIsBlobURL(t *testing.T) {
	require.True(t, IsBlobURL("blob:http://app.local/8b54"))
	require.False(t, IsBlobURL("https://cdn.example.com/x.png"))
	require.False(t, IsBlobURL(""))
}

func TestRole_Valid(t *testing.T) {
	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleInterviewee.Valid())
	require.False(t, Role("").Valid())
	require.False(t, Role("root").Valid())
}
