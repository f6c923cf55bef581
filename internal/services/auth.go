package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/requestdata"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type JWTClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type RegisterUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Roles     []string
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, *types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	log          *logger.Logger
}

func NewAuthService(db *gorm.DB, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration, baseLog *logger.Logger) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		log:          baseLog.With("service", "AuthService"),
	}
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterUserInput) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation("a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, apierr.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, apierr.Validation("first and last name are required")
	}
	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{types.RoleUser}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &types.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Roles:     types.RolesJSON(roles...),
		IsActive:  true,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := as.userRepo.EmailExists(ctx, tx, email)
		if err != nil {
			return err
		}
		if exists {
			return apierr.Conflict("email %s is already registered", email)
		}
		_, err = as.userRepo.Create(ctx, tx, []*types.User{user})
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, apierr.Validation("invalid email or password")
	}
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, apierr.Forbidden("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apierr.Validation("invalid email or password")
	}
	token, err := as.generateAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		Roles: user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Forbidden("missing access token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.Forbidden("invalid access token")
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apierr.Forbidden("invalid or expired access token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Forbidden("invalid subject in access token")
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Roles:       claims.Roles,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
