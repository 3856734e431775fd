package model_test

import (
	"testing"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestRoleBindings(t *testing.T) {
	bindings := model.RoleBindings{
		{Emoji: "🪟", RoleID: "r-win", Label: "Windows"},
		{Emoji: "🍎", RoleID: "r-mac", Label: "macOS"},
		{Emoji: "🐧", RoleID: "r-linux", Label: "Linux"},
	}

	t.Run("resolves emoji", func(t *testing.T) {
		b, ok := bindings.ByEmoji("🍎")
		gt.B(t, ok).True()
		gt.Value(t, b.RoleID).Equal("r-mac")

		_, ok = bindings.ByEmoji("🍓")
		gt.B(t, ok).False()
	})

	t.Run("others excludes the trigger", func(t *testing.T) {
		others := bindings.Others("🍎")
		gt.Array(t, others).Length(2)
		for _, b := range others {
			gt.Value(t, b.Emoji).NotEqual("🍎")
		}
	})

	t.Run("held by filters member roles", func(t *testing.T) {
		held := bindings.HeldBy([]string{"unrelated", "r-linux", "r-win"})
		gt.Array(t, held).Length(2)
		gt.Value(t, held[0].RoleID).Equal("r-win")
		gt.Value(t, held[1].RoleID).Equal("r-linux")
	})
}
