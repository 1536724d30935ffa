package mocks

import "github.com/stretchr/testify/mock"

type PasswordHasher struct{ mock.Mock }

func (m *PasswordHasher) Hash(pw string) (string, error) {
	args := m.Called(pw)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(hash, pw string) bool {
	return m.Called(hash, pw).Bool(0)
}

func (m *PasswordHasher) NeedsRehash(hash string) bool {
	return m.Called(hash).Bool(0)
}
