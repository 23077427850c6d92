package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/models"
	"github.com/lqSky7/pwncore/utils"
)

func TestSignupAndLogin(t *testing.T) {
	r, _, _ := setupEnv(t)

	w, body := doRequest(t, r, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "newuser",
		"email":    "new@xyz.org",
		"password": "password123",
	})
	if w.Code != http.StatusOK || msgCode(body) != utils.MsgSignupSuccess {
		t.Fatalf("expected signup_success, got %d %v", w.Code, body)
	}

	// Duplicate username is rejected.
	w, body = doRequest(t, r, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "newuser",
		"email":    "other@xyz.org",
		"password": "password123",
	})
	if w.Code != http.StatusConflict || msgCode(body) != utils.MsgUserOrEmailExists {
		t.Fatalf("expected user_or_email_exists, got %d %v", w.Code, body)
	}

	w, body = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "newuser",
		"password": "password123",
	})
	if w.Code != http.StatusOK || msgCode(body) != utils.MsgLoginSuccess {
		t.Fatalf("expected login_success, got %d %v", w.Code, body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected token in login response")
	}

	w, body = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "newuser",
		"password": "wrongwrong",
	})
	if w.Code != http.StatusUnauthorized || msgCode(body) != utils.MsgWrongPassword {
		t.Fatalf("expected wrong_password, got %d %v", w.Code, body)
	}
}

func TestUnlockHintRoute(t *testing.T) {
	r, token, team := setupEnv(t)

	for i, text := range []string{"first hint", "second hint"} {
		hint := models.Hint{ProblemID: 1, Order: i, Text: text}
		if err := database.DB.Create(&hint).Error; err != nil {
			t.Fatalf("seed hint: %v", err)
		}
	}

	w, body := doRequest(t, r, http.MethodGet, "/api/ctf/1/hint", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if text, _ := body["text"].(string); text != "first hint" {
		t.Fatalf("expected first hint, got %v", body)
	}

	var fresh models.Team
	database.DB.First(&fresh, team.ID)
	if fresh.Coins != 50 {
		t.Fatalf("expected penalty charged (100-50), got %d coins", fresh.Coins)
	}

	w, body = doRequest(t, r, http.MethodGet, "/api/ctf/1/hint", token, nil)
	if text, _ := body["text"].(string); w.Code != http.StatusOK || text != "second hint" {
		t.Fatalf("expected second hint, got %d %v", w.Code, body)
	}

	// All hints used up.
	w, body = doRequest(t, r, http.MethodGet, "/api/ctf/1/hint", token, nil)
	if w.Code != http.StatusConflict || msgCode(body) != utils.MsgHintLimitReached {
		t.Fatalf("expected hint_limit_reached, got %d %v", w.Code, body)
	}
}

func TestUnlockHintInsufficientCoins(t *testing.T) {
	r, token, team := setupEnv(t)

	database.DB.Model(&models.Team{}).Where("id = ?", team.ID).Update("coins", 10)
	hint := models.Hint{ProblemID: 1, Order: 0, Text: "hint"}
	database.DB.Create(&hint)

	w, body := doRequest(t, r, http.MethodGet, "/api/ctf/1/hint", token, nil)
	if w.Code != http.StatusForbidden || msgCode(body) != utils.MsgInsufficientCoins {
		t.Fatalf("expected insufficient_coins, got %d %v", w.Code, body)
	}
}
