package ticket

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDraft_Validate(t *testing.T) {
	_, err := NewDraft("Fix login", "Users cannot log in after reset")
	require.NoError(t, err)

	_, err = NewDraft("   ", "something")
	require.ErrorIs(t, err, ErrTitleEmpty)

	_, err = NewDraft(strings.Repeat("a", MaxTitleLen+1), "something")
	require.ErrorIs(t, err, ErrTitleTooLong)

	_, err = NewDraft("title", "")
	require.ErrorIs(t, err, ErrDescriptionEmpty)

	_, err = NewDraft("title", strings.Repeat("d", MaxDescriptionLen+1))
	require.ErrorIs(t, err, ErrDescriptionTooLong)
}

func TestFromDraft(t *testing.T) {
	d, err := NewDraft("title", "description")
	require.NoError(t, err)

	tk := FromDraft(7, d)
	require.Equal(t, ID(7), tk.ID)
	require.Equal(t, d.Title, tk.Title)
	require.Equal(t, d.Description, tk.Description)
	require.Equal(t, ToDo, tk.Status)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	require.Equal(t, ID(42), id)
	require.Equal(t, "42", id.String())

	_, err = ParseID("-1")
	require.Error(t, err)
	_, err = ParseID("abc")
	require.Error(t, err)
}

func TestStatus_JSON(t *testing.T) {
	tk := Ticket{ID: 1, Title: "t", Description: "d", Status: InProgress}
	data, err := json.Marshal(tk)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"title":"t","description":"d","status":"in_progress"}`, string(data))

	var back Ticket
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, tk, back)

	var s Status
	require.ErrorIs(t, json.Unmarshal([]byte(`"blocked"`), &s), ErrUnknownStatus)

	_, err = json.Marshal(Status(9))
	require.Error(t, err)
}
