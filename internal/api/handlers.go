package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gigglechat/internal/apperr"
	"gigglechat/internal/auth"
	"gigglechat/internal/service/account"
	"gigglechat/internal/service/character"
	"gigglechat/internal/service/chat"
)

// Handler wires HTTP routes to the account, character and chat services.
type Handler struct {
	accounts   *account.Service
	auth       *auth.Service
	characters character.Store
	chat       *chat.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(accounts *account.Service, authService *auth.Service, characters character.Store, chatService *chat.Service) *Handler {
	return &Handler{
		accounts:   accounts,
		auth:       authService,
		characters: characters,
		chat:       chatService,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/characters/", h.listCharacters)
	api.POST("/register/", h.registerUser)
	api.POST("/login/", h.loginUser)
	api.POST("/token/refresh/", h.refreshToken)
	api.POST("/chat/", h.auth.Middleware(), h.chatTurn)
}

func (h *Handler) listCharacters(c *gin.Context) {
	characters, err := h.characters.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// User create&login interface
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if apperr.From(err).Kind == apperr.KindInternal {
			log.Printf("[api] register %q failed: %v", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed. Please try again."})
			return
		}
		h.writeError(c, err)
		return
	}
	tokens, err := h.auth.IssuePair(user.ID)
	if err != nil {
		log.Printf("[api] issue tokens for user %d failed: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed. Please try again."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully!",
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

func (h *Handler) loginUser(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	tokens, err := h.auth.IssuePair(user.ID)
	if err != nil {
		h.writeError(c, apperr.Internal("issue token failed", err))
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Refresh == "" {
		h.writeError(c, apperr.Validation("refresh is required."))
		return
	}
	access, err := h.auth.Refresh(req.Refresh)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *Handler) chatTurn(c *gin.Context) {
	body, err := decodeLooseBody(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": apperr.KindValidation.String()})
		return
	}
	caller := chat.Caller{}
	if userID, ok := auth.UserIDFromContext(c); ok {
		caller.AccountID = userID
	}

	result, err := h.chat.HandleTurn(c.Request.Context(), caller, chat.Request{
		Message:     fieldString(body, "message"),
		CharacterID: fieldString(body, "character_id"),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			e := apperr.From(err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         e.Message,
				"code":          e.Code(),
				"received_data": body,
			})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": result.Reply})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	e := apperr.From(err)
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	payload := gin.H{"error": apperr.PublicMessage(err), "code": e.Code()}
	if e.Kind == apperr.KindAuth {
		payload["detail"] = e.Message
	}
	c.JSON(status, payload)
}

// bindJSON decodes the body into dst; an empty body leaves dst zeroed.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": apperr.KindValidation.String()})
		return false
	}
	return true
}

// decodeLooseBody reads a JSON object keeping numbers as written.
func decodeLooseBody(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// fieldString returns the field rendered as text, or nil when absent or null.
func fieldString(body map[string]any, key string) *string {
	v, ok := body[key]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(encoded)
		}
	}
	return &s
}
