package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/repository"
)

// SeedService генерирует демонстрационные данные для development окружения.
type SeedService struct {
	userRepo    *repository.UserRepository
	auctionRepo *repository.AuctionRepository
	reviewRepo  *repository.ReviewRepository
}

// NewSeedService создаёт сервис генерации данных.
func NewSeedService(userRepo *repository.UserRepository, auctionRepo *repository.AuctionRepository, reviewRepo *repository.ReviewRepository) *SeedService {
	return &SeedService{
		userRepo:    userRepo,
		auctionRepo: auctionRepo,
		reviewRepo:  reviewRepo,
	}
}

var seedSkills = []string{
	"JavaScript", "TypeScript", "React", "Vue.js", "Node.js", "Python", "Go",
	"Java", "PHP", "Swift", "Kotlin", "Flutter", "Docker", "Kubernetes",
	"PostgreSQL", "MongoDB", "Redis", "GraphQL", "REST API", "CI/CD",
	"Figma", "UI/UX Design", "SEO", "Копирайтинг", "Перевод", "Аналитика данных",
}

var seedTitles = []string{
	"Лендинг для кофейни",
	"Мобильное приложение доставки",
	"Редизайн интернет-магазина",
	"Парсер маркетплейсов",
	"Telegram-бот для записи клиентов",
	"Интеграция с платёжным шлюзом",
	"Настройка CI/CD пайплайна",
	"Логотип и фирменный стиль",
	"Перевод документации на английский",
	"Дашборд аналитики продаж",
}

// SeedData генерирует пользователей, аукционы и ставки. Часть аукционов
// проводится через полный жизненный цикл, чтобы у исполнителей появились
// рейтинги и выполненные работы.
func (s *SeedService) SeedData(ctx context.Context, numUsers, numAuctions int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	faker := gofakeit.New(0)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed service: не удалось захешировать пароль: %w", err)
	}

	var clients []*models.User
	var providers []*models.User

	for i := 0; i < numUsers; i++ {
		role := models.RoleProvider
		if i%3 == 0 { // треть клиентов, остальные исполнители
			role = models.RoleClient
		}

		username := strings.ToLower(faker.Username()) + fmt.Sprintf("%d", rng.Intn(10000))
		bio := faker.Paragraph(1, 3, 12, " ")
		location := faker.City()

		user := &models.User{
			Email:            fmt.Sprintf("%s@%s", username, faker.DomainName()),
			Username:         username,
			PasswordHash:     string(passwordHash),
			Role:             role,
			SecurityQuestion: "Кличка первого питомца?",
			SecurityAnswer:   strings.ToLower(faker.PetName()),
		}

		profile := &models.Profile{
			DisplayName:   faker.Name(),
			Bio:           &bio,
			Skills:        pickSkills(rng, 2+rng.Intn(5)),
			HourlyRate:    float64(10 + rng.Intn(90)),
			Availability:  models.AvailabilityActive,
			Location:      &location,
			Rating:        5.0,
			CompletedJobs: 0,
		}

		if err := s.userRepo.Create(ctx, user, profile); err != nil {
			return fmt.Errorf("seed service: не удалось создать пользователя: %w", err)
		}

		// Create сохраняет только стартовые колонки, остальное дописываем.
		if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
			return fmt.Errorf("seed service: не удалось заполнить профиль: %w", err)
		}

		if role == models.RoleClient {
			clients = append(clients, user)
		} else {
			providers = append(providers, user)
		}
	}

	if len(clients) == 0 || len(providers) == 0 {
		return fmt.Errorf("seed service: слишком мало пользователей для генерации аукционов")
	}

	for i := 0; i < numAuctions; i++ {
		owner := clients[rng.Intn(len(clients))]

		auction := &models.Auction{
			OwnerID:     owner.ID,
			Title:       seedTitles[rng.Intn(len(seedTitles))],
			Description: faker.Paragraph(2, 4, 10, " "),
			Budget:      float64(100 + rng.Intn(4900)),
			Deadline:    time.Now().Add(time.Duration(24+rng.Intn(96)) * time.Hour),
			Status:      models.AuctionStatusActive,
		}

		if err := s.auctionRepo.Create(ctx, auction); err != nil {
			return fmt.Errorf("seed service: не удалось создать аукцион: %w", err)
		}

		numBids := 1 + rng.Intn(4)
		var bids []*models.Bid
		for j := 0; j < numBids; j++ {
			bidder := providers[rng.Intn(len(providers))]
			bid := &models.Bid{
				AuctionID: auction.ID,
				BidderID:  bidder.ID,
				Amount:    auction.Budget * (0.5 + rng.Float64()*0.5),
			}
			if err := s.auctionRepo.CreateBid(ctx, bid); err != nil {
				return fmt.Errorf("seed service: не удалось создать ставку: %w", err)
			}
			bids = append(bids, bid)
		}

		// Половину аукционов проводим дальше по жизненному циклу.
		if rng.Intn(2) == 0 {
			winner := bids[rng.Intn(len(bids))]

			if err := s.auctionRepo.AcceptBid(ctx, auction.ID, winner.BidderID); err != nil {
				return fmt.Errorf("seed service: не удалось принять ставку: %w", err)
			}

			if rng.Intn(2) == 0 {
				if err := s.auctionRepo.MarkDelivered(ctx, auction.ID, winner.BidderID); err != nil {
					return fmt.Errorf("seed service: не удалось завершить аукцион: %w", err)
				}

				comment := faker.Sentence(8)
				review := &models.Review{
					AuctionID: auction.ID,
					Rating:    3 + rng.Intn(3),
					Comment:   &comment,
				}
				if err := s.reviewRepo.Create(ctx, review); err != nil {
					return fmt.Errorf("seed service: не удалось создать отзыв: %w", err)
				}
				if err := s.userRepo.RecalculateRating(ctx, winner.BidderID); err != nil {
					return fmt.Errorf("seed service: не удалось пересчитать рейтинг: %w", err)
				}
			}
		}
	}

	return nil
}

// pickSkills выбирает случайный набор навыков без повторов.
func pickSkills(rng *rand.Rand, count int) []string {
	perm := rng.Perm(len(seedSkills))
	if count > len(seedSkills) {
		count = len(seedSkills)
	}
	skills := make([]string, 0, count)
	for _, idx := range perm[:count] {
		skills = append(skills, seedSkills[idx])
	}
	return skills
}
