package project

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bitbox360/backend/core"
)

func TestMakeVerifyStudentToken(t *testing.T) {
	conf := core.NewTestConfig()

	studentID := uuid.New()
	groupID := uuid.New()
	expiry := time.Now().Add(7 * 24 * time.Hour)

	validToken, err := MakeStudentToken(conf, studentID, groupID, expiry)
	if err != nil {
		t.Fatalf("MakeStudentToken() error = %v", err)
	}

	// generate an expired token
	expiredToken, err := MakeStudentToken(conf, studentID, groupID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("MakeStudentToken() error = %v", err)
	}

	// generate a token signed with another key
	otherConf := core.NewTestConfig()
	otherConf.SecretKey = []byte("not-the-same-key")
	forgedToken, err := MakeStudentToken(otherConf, studentID, groupID, expiry)
	if err != nil {
		t.Fatalf("MakeStudentToken() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "no token", wantErr: true},
		{name: "garbage token", token: "lmaooolol", wantErr: true},
		{name: "expired token", token: expiredToken, wantErr: true},
		{name: "forged token", token: forgedToken, wantErr: true},
		{name: "valid token", token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := VerifyStudentToken(conf, tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyStudentToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if claims.Subject != studentID.String() {
				t.Errorf("claims.Subject = %v, want %v", claims.Subject, studentID)
			}
			if claims.GroupID != groupID.String() {
				t.Errorf("claims.GroupID = %v, want %v", claims.GroupID, groupID)
			}
			if claims.ExpiresAt != expiry.Unix() {
				t.Errorf("claims.ExpiresAt = %v, want %v", claims.ExpiresAt, expiry.Unix())
			}
		})
	}
}
