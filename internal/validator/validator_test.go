package validator_test

import (
	"fmt"
	"realestate-backend/internal/models"
	"realestate-backend/internal/validator"
	"strings"
	"testing"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		expectedError error
	}{
		{
			name:          "Valid: Simple name",
			username:      "alice",
			expectedError: nil,
		},
		{
			name:          "Valid: Dots, dashes and underscores",
			username:      "jane.doe-agent_1",
			expectedError: nil,
		},
		{
			name:          "Valid: Maximum length (32 chars)",
			username:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			expectedError: nil,
		},
		{
			name:          "Error: Too short",
			username:      "al",
			expectedError: fmt.Errorf("short_username"),
		},
		{
			name:          "Error: Too long (33 chars)",
			username:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			expectedError: fmt.Errorf("long_username"),
		},
		{
			name:          "Error: Contains space",
			username:      "alice smith",
			expectedError: fmt.Errorf("bad_format"),
		},
		{
			name:          "Error: Contains at sign",
			username:      "alice@home",
			expectedError: fmt.Errorf("bad_format"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Username(tc.username)

			if tc.expectedError == nil {
				if err != nil {
					t.Errorf("Username(%q) failed unexpectedly: got error %v, want nil", tc.username, err)
				}
				return
			}

			if err == nil {
				t.Errorf("Username(%q) passed unexpectedly: got nil, want error %v", tc.username, tc.expectedError)
				return
			}

			if err.Error() != tc.expectedError.Error() {
				t.Errorf("Username(%q) got error %q, want error %q", tc.username, err.Error(), tc.expectedError.Error())
			}
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		expectedError error
	}{
		{
			name:          "Valid Password: Minimum Length",
			password:      "secret",
			expectedError: nil,
		},
		{
			name:          "Valid Password: Mixed Case and Symbols",
			password:      "P@sswOrd123!",
			expectedError: nil,
		},
		{
			name:          "Error: Password Too Short",
			password:      "abc",
			expectedError: fmt.Errorf("short_password"),
		},
		{
			name:          "Error: Password Longer Than Bcrypt Accepts",
			password:      fmt.Sprintf("%073d", 0),
			expectedError: fmt.Errorf("long_password"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Password(tc.password)

			if tc.expectedError == nil {
				if err != nil {
					t.Errorf("Password(%q) failed unexpectedly: got error %v, want nil", tc.password, err)
				}
				return
			}

			if err == nil {
				t.Errorf("Password(%q) passed unexpectedly: got nil, want error %v", tc.password, tc.expectedError)
				return
			}

			if err.Error() != tc.expectedError.Error() {
				t.Errorf("Password(%q) got error %q, want error %q", tc.password, err.Error(), tc.expectedError.Error())
			}
		})
	}
}

func TestRoleAndPropertyType(t *testing.T) {
	for _, role := range models.Roles {
		if err := validator.Role(string(role)); err != nil {
			t.Errorf("Role(%q) failed unexpectedly: %v", role, err)
		}
	}
	if err := validator.Role("superuser"); err == nil {
		t.Error("Role(\"superuser\") passed unexpectedly")
	}

	if err := validator.PropertyType("Condo"); err != nil {
		t.Errorf("PropertyType(\"Condo\") failed unexpectedly: %v", err)
	}
	if err := validator.PropertyType("condo"); err == nil {
		t.Error("PropertyType is case sensitive, \"condo\" passed unexpectedly")
	}
}

func TestMessageContent(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedError error
	}{
		{name: "Valid: Text", content: "is the flat still available?"},
		{name: "Valid: Exactly the byte limit", content: strings.Repeat("a", validator.MaxMessageContent)},
		{name: "Error: Empty", content: "", expectedError: fmt.Errorf("empty_content")},
		{name: "Error: Only whitespace", content: " \t\n ", expectedError: fmt.Errorf("empty_content")},
		{name: "Error: Multibyte runes over the byte limit", content: strings.Repeat("é", 2049), expectedError: fmt.Errorf("long_content")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.MessageContent(tc.content)

			if tc.expectedError == nil {
				if err != nil {
					t.Errorf("MessageContent failed unexpectedly: got error %v, want nil", err)
				}
				return
			}

			if err == nil || err.Error() != tc.expectedError.Error() {
				t.Errorf("MessageContent got error %v, want error %q", err, tc.expectedError.Error())
			}
		})
	}
}

type registration struct {
	Username string  `json:"username" validate:"required,username"`
	Password string  `json:"password" validate:"required,password"`
	Role     string  `json:"role" validate:"omitempty,role"`
	Address  address `json:"address"`
}

type address struct {
	City string `json:"city" validate:"required"`
}

func TestStructErrors(t *testing.T) {
	validate := validator.New()

	err := validate.Struct(registration{Username: "al", Password: "secret", Role: "root"})
	fieldErrors, ok := validator.Errors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}

	want := map[string]string{
		"username":     "username",
		"role":         "role",
		"address.city": "required",
	}
	if len(fieldErrors) != len(want) {
		t.Fatalf("got %v, want %v", fieldErrors, want)
	}
	for field, tag := range want {
		if fieldErrors[field] != tag {
			t.Errorf("field %q got tag %q, want %q", field, fieldErrors[field], tag)
		}
	}

	err = validate.Struct(registration{Username: "alice", Password: "secret", Address: address{City: "Riga"}})
	if err != nil {
		t.Errorf("valid struct failed: %v", err)
	}

	if _, ok := validator.Errors(fmt.Errorf("other")); ok {
		t.Error("non validation error reported as validation error")
	}
}
