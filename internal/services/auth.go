package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidPassword    = errors.New("invalid password format")
	ErrInvalidRSAKey      = errors.New("invalid RSA key")
)

// UserQuerier defines the user database operations used by auth and user management
type UserQuerier interface {
	CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error)
	GetUserByID(ctx context.Context, id int32) (queries.User, error)
	GetUserByUsername(ctx context.Context, username string) (queries.User, error)
	UpdateUserLastLogin(ctx context.Context, arg queries.UpdateUserLastLoginParams) error
	UpdateUserPassword(ctx context.Context, arg queries.UpdateUserPasswordParams) error
	ListUsers(ctx context.Context) ([]queries.User, error)
}

type AuthService struct {
	querier       UserQuerier
	jwtPrivateKey *rsa.PrivateKey
	jwtPublicKey  *rsa.PublicKey
	tokenExpiry   time.Duration
	argon2Config  *Argon2Config
	logger        *slog.Logger
	redisClient   *redis.Client
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewAuthService parses the RS256 signing key. With an empty PEM a throwaway
// key is generated, so tokens do not survive a restart.
func NewAuthService(querier UserQuerier, jwtPrivateKeyPEM string, tokenExpiry time.Duration, logger *slog.Logger, redisClient *redis.Client) (*AuthService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var key *rsa.PrivateKey
	var err error
	if strings.TrimSpace(jwtPrivateKeyPEM) == "" {
		logger.Warn("No JWT private key configured, generating an ephemeral key")
		key, err = rsa.GenerateKey(rand.Reader, 2048)
	} else {
		key, err = parseRSAPrivateKey(jwtPrivateKeyPEM)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load JWT private key: %w", err)
	}

	return &AuthService{
		querier:       querier,
		jwtPrivateKey: key,
		jwtPublicKey:  &key.PublicKey,
		tokenExpiry:   tokenExpiry,
		argon2Config: &Argon2Config{
			Memory:      64 * 1024,
			Iterations:  3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		logger:      logger,
		redisClient: redisClient,
	}, nil
}

func parseRSAPrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrInvalidRSAKey
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		if rsaKey, ok := parsedKey.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, ErrInvalidRSAKey
	}

	return privateKey, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrInvalidPassword
	}

	salt := make([]byte, s.argon2Config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		s.argon2Config.Iterations,
		s.argon2Config.Memory,
		s.argon2Config.Parallelism,
		s.argon2Config.KeyLength,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.argon2Config.Memory,
		s.argon2Config.Iterations,
		s.argon2Config.Parallelism,
		b64Salt,
		b64Hash,
	), nil
}

func (s *AuthService) VerifyPassword(hashedPassword, password string) (bool, error) {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, errors.New("invalid hash type")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return false, errors.New("incompatible argon2 version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid parameters: %w", err)
	}

	decodedSalt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("error decoding salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("error decoding hash: %w", err)
	}

	computedHash := argon2.IDKey(
		[]byte(password),
		decodedSalt,
		iterations,
		memory,
		parallelism,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// Login checks the credentials of an admin-side user and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	row, err := s.querier.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if queries.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.VerifyPassword(row.PasswordHash, req.Password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", "user_id", row.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !row.IsActive {
		return nil, ErrUserInactive
	}

	now := time.Now().UTC()
	if err := s.querier.UpdateUserLastLogin(ctx, queries.UpdateUserLastLoginParams{
		ID:        row.ID,
		LastLogin: queries.Timestamptz(now),
	}); err != nil {
		s.logger.Warn("Failed to record last login", "user_id", row.ID, "error", err)
	}
	row.LastLogin = queries.Timestamptz(now)

	user := row.ToModel()
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &models.LoginResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenExpiry.Seconds()),
	}, nil
}

// GenerateToken signs an access token for user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()

	claims := &models.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("user_%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.jwtPrivateKey)
}

func (s *AuthService) parse(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtPublicKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken checks the signature, expiry and blacklist of an access token
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		blacklisted, err := s.redisClient.Exists(ctx, blacklistKey(tokenString)).Result()
		if err != nil {
			// Redis being down does not lock everyone out.
			s.logger.Error("Failed to check token blacklist", "error", err)
		}
		if blacklisted > 0 {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// BlacklistToken revokes a token until it would have expired anyway
func (s *AuthService) BlacklistToken(ctx context.Context, tokenString string) error {
	if s.redisClient == nil {
		return errors.New("redis client not configured")
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}

	expiry := time.Until(claims.ExpiresAt.Time)
	if expiry <= 0 {
		return nil
	}

	if err := s.redisClient.Set(ctx, blacklistKey(tokenString), "1", expiry).Err(); err != nil {
		s.logger.Error("Failed to blacklist token", "error", err)
		return err
	}

	s.logger.Info("Token blacklisted successfully", "user_id", claims.UserID)
	return nil
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID int32, req models.ChangePasswordRequest) error {
	row, err := s.querier.GetUserByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user")
	}

	ok, err := s.VerifyPassword(row.PasswordHash, req.CurrentPassword)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return validationError(err)
	}

	if err := s.querier.UpdateUserPassword(ctx, queries.UpdateUserPasswordParams{
		ID:           userID,
		PasswordHash: hash,
	}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}
