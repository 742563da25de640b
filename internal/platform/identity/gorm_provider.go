package identity

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"time"

	"mediagrid-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const authStateTopic = "auth.state"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Credential is the provider's account record.
type Credential struct {
	UID          string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	PhotoURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Credential) TableName() string { return "identities" }

func (c *Credential) identity() *Identity {
	return &Identity{
		UID:         c.UID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		PhotoURL:    c.PhotoURL,
	}
}

// GormProvider implements Provider against Postgres. State-change
// notifications fan out over an in-process watermill channel; each
// subscriber filters the feed down to its own session.
type GormProvider struct {
	db     *gorm.DB
	pubSub *gochannel.GoChannel
	logger logger.ILogger

	mu      sync.RWMutex
	current map[string]*Identity // sessionID -> signed-in identity
}

func NewGormProvider(db *gorm.DB, log logger.ILogger) *GormProvider {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	return &GormProvider{
		db:      db,
		pubSub:  pubSub,
		logger:  log,
		current: make(map[string]*Identity),
	}
}

func (p *GormProvider) CreateAccount(ctx context.Context, sessionID, email, password string) (*Identity, error) {
	if !emailPattern.MatchString(email) {
		return nil, &CredentialError{Reason: ReasonInvalidEmail, Message: "email address is badly formatted"}
	}
	if len(password) < 6 {
		return nil, &CredentialError{Reason: ReasonWeakPassword, Message: "password should be at least 6 characters"}
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&Credential{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, &CredentialError{Reason: ReasonNetwork, Message: err.Error()}
	}
	if count > 0 {
		return nil, &CredentialError{Reason: ReasonEmailInUse, Message: "email address is already in use"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		UID:          uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := p.db.WithContext(ctx).Create(cred).Error; err != nil {
		return nil, &CredentialError{Reason: ReasonNetwork, Message: err.Error()}
	}

	id := cred.identity()
	p.setCurrent(sessionID, id)
	return id, nil
}

func (p *GormProvider) SignIn(ctx context.Context, sessionID, email, password string) (*Identity, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &CredentialError{Reason: ReasonInvalidCredential, Message: "invalid credentials"}
	}
	if err != nil {
		return nil, &CredentialError{Reason: ReasonNetwork, Message: err.Error()}
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, &CredentialError{Reason: ReasonInvalidCredential, Message: "invalid credentials"}
	}

	id := cred.identity()
	p.setCurrent(sessionID, id)
	return id, nil
}

func (p *GormProvider) SignOut(ctx context.Context, sessionID string) error {
	p.setCurrent(sessionID, nil)
	return nil
}

func (p *GormProvider) UpdateIdentity(ctx context.Context, uid string, patch Patch) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.DisplayName != nil {
		updates["display_name"] = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		updates["photo_url"] = *patch.PhotoURL
	}

	res := p.db.WithContext(ctx).Model(&Credential{}).Where("uid = ?", uid).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("identity not found")
	}

	// Keep cached session views consistent without firing a state change.
	p.mu.Lock()
	for sid, id := range p.current {
		if id != nil && id.UID == uid {
			updated := *id
			if patch.DisplayName != nil {
				updated.DisplayName = *patch.DisplayName
			}
			if patch.PhotoURL != nil {
				updated.PhotoURL = *patch.PhotoURL
			}
			p.current[sid] = &updated
		}
	}
	p.mu.Unlock()
	return nil
}

func (p *GormProvider) OnAuthStateChange(sessionID string, handler func(*Identity)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := p.pubSub.Subscribe(ctx, authStateTopic)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		for msg := range msgs {
			var change StateChange
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				p.logger.Warn("IdentityProvider", "Dropping malformed state change", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			msg.Ack()
			if change.SessionID != sessionID {
				continue
			}
			handler(change.Identity)
		}
	}()

	// Replay the current state so a fresh subscriber resolves immediately,
	// matching hosted-provider onAuthStateChange semantics.
	p.mu.RLock()
	initial := p.current[sessionID]
	p.mu.RUnlock()
	go handler(initial)

	return cancel, nil
}

func (p *GormProvider) setCurrent(sessionID string, id *Identity) {
	p.mu.Lock()
	if id == nil {
		delete(p.current, sessionID)
	} else {
		p.current[sessionID] = id
	}
	p.mu.Unlock()

	payload, err := json.Marshal(StateChange{SessionID: sessionID, Identity: id})
	if err != nil {
		p.logger.Error("IdentityProvider", "Failed to encode state change", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := p.pubSub.Publish(authStateTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		p.logger.Error("IdentityProvider", "Failed to publish state change", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
