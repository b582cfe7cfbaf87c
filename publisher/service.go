package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/model"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// TopicDailyDropGenerated is the event bus topic carrying finished drop sets
// from the generator to the email sink.
const TopicDailyDropGenerated = "daily_drop_generated"

// DropDigest is the event payload for one user's finished daily drop.
type DropDigest struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	DropDate  time.Time   `json:"dropDate"`
	Items     []DropItem  `json:"items"`
}

type DropItem struct {
	ContentID  string  `json:"contentId"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Url        string  `json:"url"`
	Source     string  `json:"source"`
	MatchScore float64 `json:"matchScore"`
}

// DropPublisher walks all onboarded users, generates their daily drops and
// publishes a digest event per user. A failure for one user never blocks the
// others.
type DropPublisher struct {
	DB        *gorm.DB
	Generator *DropGenerator
	Cache     *classifier.TopicEmbeddingCache
	Bus       *gochannel.GoChannel
}

func NewDropPublisher(db *gorm.DB, generator *DropGenerator, cache *classifier.TopicEmbeddingCache, bus *gochannel.GoChannel) *DropPublisher {
	return &DropPublisher{DB: db, Generator: generator, Cache: cache, Bus: bus}
}

// PublishReport accumulates the outcome of one generation run.
type PublishReport struct {
	UsersProcessed int
	DropsCreated   int
	Errors         []string
}

// GenerateAndSendDailyDrops runs drop generation for every onboarded user and
// emits one digest event per non-empty result.
func (p *DropPublisher) GenerateAndSendDailyDrops(ctx context.Context) (*PublishReport, error) {
	var users []model.User
	if err := p.DB.Where("is_onboarded = ?", true).Find(&users).Error; err != nil {
		return nil, err
	}

	report := &PublishReport{}
	for idx := range users {
		user := &users[idx]
		report.UsersProcessed++

		// Keep the aggregated taste vector warm, recomputed lazily when a
		// preference save invalidated it. Failure is logged only, drop
		// generation itself scores on raw topic overlap.
		if _, err := EnsureProfileVector(ctx, p.DB, p.Cache, user.Id); err != nil {
			Logger.Log.Error("fail to ensure profile vector for user ", user.Id, ": ", err)
		}

		drops, err := p.Generator.GenerateUserDailyDrop(user.Id)
		if err != nil {
			Logger.Log.Error("fail to generate daily drop for user ", user.Id, ": ", err)
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		if len(drops) == 0 {
			continue
		}
		report.DropsCreated += len(drops)

		if err := p.publishDigest(user, drops); err != nil {
			Logger.Log.Error("fail to publish drop digest for user ", user.Id, ": ", err)
			report.Errors = append(report.Errors, err.Error())
		}
	}
	return report, nil
}

func (p *DropPublisher) publishDigest(user *model.User, drops []model.DailyDrop) error {
	// A publisher without a bus still generates drops, it just skips the email
	// digest. The API trigger runs in this mode.
	if p.Bus == nil {
		return nil
	}
	digest := DropDigest{
		UserID:    user.Id,
		Email:     user.Email,
		FirstName: user.FirstName,
		DropDate:  drops[0].DropDate,
	}
	for _, drop := range drops {
		var content model.Content
		if err := p.DB.First(&content, "id = ?", drop.ContentID).Error; err != nil {
			return err
		}
		digest.Items = append(digest.Items, DropItem{
			ContentID:  content.Id,
			Title:      content.Title,
			Summary:    content.Summary,
			Url:        content.Url,
			Source:     content.Source,
			MatchScore: drop.MatchScore,
		})
	}

	payload, err := json.Marshal(digest)
	if err != nil {
		return err
	}
	return p.Bus.Publish(TopicDailyDropGenerated, message.NewMessage(watermill.NewUUID(), payload))
}
