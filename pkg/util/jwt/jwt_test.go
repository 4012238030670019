package jwt

import "testing"

func TestGenerateAndParse(t *testing.T) {
	Init("test-secret-at-least-32-characters!", "duo_chat", "duo_chat_ws", 30)

	token, err := GenerateAccessToken(42, "user")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "user" {
		t.Fatalf("Role = %q, want user", claims.Role)
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	Init("test-secret-at-least-32-characters!", "duo_chat", "duo_chat_ws", 30)
	token, err := GenerateAccessToken(1, "user")
	if err != nil {
		t.Fatal(err)
	}

	// 换一套受众配置后，旧 token 必须被拒绝
	Init("test-secret-at-least-32-characters!", "duo_chat", "other_audience", 30)
	if _, err := ParseToken(token); err == nil {
		t.Fatal("token with wrong audience should be rejected")
	}
}

func TestDigestStable(t *testing.T) {
	if Digest("abc") != Digest("abc") {
		t.Fatal("digest should be deterministic")
	}
	if Digest("abc") == Digest("abd") {
		t.Fatal("different tokens should not collide")
	}
	if len(Digest("abc")) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(Digest("abc")))
	}
}
