package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfirmationCode_Unique(t *testing.T) {
	// Act
	code1, err1 := GenerateConfirmationCode()
	code2, err2 := GenerateConfirmationCode()

	// Assert
	require.NoError(t, err1, "First GenerateConfirmationCode should not fail")
	require.NoError(t, err2, "Second GenerateConfirmationCode should not fail")
	assert.Len(t, code1, 40, "Code should be 20 random bytes hex-encoded")
	assert.NotEqual(t, code1, code2, "Consecutive codes should differ")
}

func TestHashConfirmationCode_Success(t *testing.T) {
	// Arrange
	code, err := GenerateConfirmationCode()
	require.NoError(t, err, "Setup: GenerateConfirmationCode should not fail")

	// Act
	hash, err := HashConfirmationCode(code)

	// Assert
	require.NoError(t, err, "HashConfirmationCode should not return error")
	assert.NotEmpty(t, hash, "Hash should not be empty")
	assert.NotEqual(t, code, hash, "Hash should be different from the code")
	assert.Contains(t, hash, "$argon2id$", "Hash should contain Argon2id identifier")
}

func TestVerifyConfirmationCode_Correct(t *testing.T) {
	// Arrange
	code, err := GenerateConfirmationCode()
	require.NoError(t, err, "Setup: GenerateConfirmationCode should not fail")
	hash, err := HashConfirmationCode(code)
	require.NoError(t, err, "Setup: HashConfirmationCode should not fail")

	// Act
	match, err := VerifyConfirmationCode(code, hash)

	// Assert
	require.NoError(t, err, "VerifyConfirmationCode should not return error")
	assert.True(t, match, "Code should match its hash")
}

func TestVerifyConfirmationCode_Incorrect(t *testing.T) {
	// Arrange
	code, err := GenerateConfirmationCode()
	require.NoError(t, err, "Setup: GenerateConfirmationCode should not fail")
	other, err := GenerateConfirmationCode()
	require.NoError(t, err, "Setup: GenerateConfirmationCode should not fail")
	hash, err := HashConfirmationCode(code)
	require.NoError(t, err, "Setup: HashConfirmationCode should not fail")

	// Act
	match, err := VerifyConfirmationCode(other, hash)

	// Assert
	require.NoError(t, err, "VerifyConfirmationCode should not return error")
	assert.False(t, match, "A different code should not match the hash")
}

func TestHashConfirmationCode_UniqueHashes(t *testing.T) {
	// Arrange
	code := "same-code-hashed-twice"

	// Act
	hash1, err1 := HashConfirmationCode(code)
	hash2, err2 := HashConfirmationCode(code)

	// Assert
	require.NoError(t, err1, "First HashConfirmationCode should not fail")
	require.NoError(t, err2, "Second HashConfirmationCode should not fail")
	assert.NotEqual(t, hash1, hash2, "Same code should produce different hashes due to unique salt")
}

func TestVerifyConfirmationCode_MalformedHash(t *testing.T) {
	// Arrange
	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}

	for _, hash := range malformed {
		t.Run(hash, func(t *testing.T) {
			// Act
			match, err := VerifyConfirmationCode("anything", hash)

			// Assert
			assert.Error(t, err, "Malformed hashes should be rejected")
			assert.False(t, match, "Malformed hashes should never match")
		})
	}
}
