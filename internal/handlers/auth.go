package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"quickbite/internal/mail"
	"quickbite/internal/models"
)

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Mobile   string `json:"mobile" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SendOtpRequest struct {
	Email string `json:"email" binding:"required"`
}

type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required"`
	Otp   string `json:"otp" binding:"required"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

const otpTTL = 5 * time.Minute

func Register(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !models.ValidRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be customer, owner or courier"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			log.Println("[AUTH] [ERROR] register db error:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if count > 0 {
			log.Println("[AUTH] [ERROR] register email exists:", email)
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		now := time.Now()
		user := models.User{
			FullName:     strings.TrimSpace(req.FullName),
			Email:        email,
			PasswordHash: string(hash),
			Mobile:       strings.TrimSpace(req.Mobile),
			Role:         req.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		id, _ := res.InsertedID.(primitive.ObjectID)
		token, err := issueToken(id, req.Role, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] register token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		user.ID = id
		log.Println("[AUTH] [INFO] user registered:", email, "role:", req.Role)
		c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
	}
}

func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			if err != mongo.ErrNoDocuments {
				log.Println("[AUTH] [ERROR] login user lookup failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials:", email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := issueToken(user.ID, user.Role, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", email)
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

// Logout flips a courier offline so the broker stops broadcasting to them.
// Tokens are stateless; the client just discards its copy.
func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role := authedUser(c)

		if role == models.RoleCourier {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
				"$set": bson.M{"isOnline": false, "updatedAt": time.Now()},
			})
			if err != nil {
				log.Println("[AUTH] [ERROR] logout offline update failed:", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func SendOtp(db *mongo.Database, mailer *mail.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SendOtpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		otp, err := generateOtp()
		if err != nil {
			log.Println("[AUTH] [ERROR] otp generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "otp generation failed"})
			return
		}

		expires := time.Now().Add(otpTTL)
		_, err = db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{
				"resetOtpHash":  hashToken(otp),
				"otpExpires":    expires,
				"isOtpVerified": false,
			},
		})
		if err != nil {
			log.Println("[AUTH] [ERROR] otp store failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		// Mail failure is logged inside the service, never surfaced.
		go mailer.SendOtp(email, otp)

		log.Println("[AUTH] [INFO] otp issued for:", email)
		c.JSON(http.StatusOK, gin.H{"message": "otp sent"})
	}
}

func VerifyOtp(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyOtpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// The filter pins hash and expiry so a stale or wrong code simply
		// matches nothing.
		res, err := db.Collection("users").UpdateOne(ctx, bson.M{
			"email":        email,
			"resetOtpHash": hashToken(strings.TrimSpace(req.Otp)),
			"otpExpires":   bson.M{"$gt": time.Now()},
		}, bson.M{
			"$set": bson.M{"isOtpVerified": true},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			log.Println("[AUTH] [ERROR] otp verification failed for:", email)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired otp"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "otp verified"})
	}
}

func ResetPassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateOne(ctx, bson.M{
			"email":         email,
			"isOtpVerified": true,
		}, bson.M{
			"$set": bson.M{
				"passwordHash":  string(hash),
				"isOtpVerified": false,
				"updatedAt":     time.Now(),
			},
			"$unset": bson.M{"resetOtpHash": "", "otpExpires": ""},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "otp verification required"})
			return
		}

		log.Println("[AUTH] [INFO] password reset for:", email)
		c.JSON(http.StatusOK, gin.H{"message": "password reset"})
	}
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func issueToken(userID primitive.ObjectID, role, secret string, accessTTL time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   role,
		"exp":    time.Now().Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
