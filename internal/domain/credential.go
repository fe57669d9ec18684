package domain

import "fmt"

// Credential is a Steam login used by exactly one bot session at a time.
type Credential struct {
	Login    string
	Password string
}

func (c Credential) String() string {
	return fmt.Sprintf("Credential{%s}", c.Login)
}

// ParseCredentials reads alternating login/password tokens.
func ParseCredentials(tokens []string) ([]Credential, error) {
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("credentials need login/password pairs, got %d tokens", len(tokens))
	}
	creds := make([]Credential, 0, len(tokens)/2)
	seen := make(map[string]bool, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		login := tokens[i]
		if seen[login] {
			return nil, fmt.Errorf("duplicate credential login %q", login)
		}
		seen[login] = true
		creds = append(creds, Credential{Login: login, Password: tokens[i+1]})
	}
	return creds, nil
}
