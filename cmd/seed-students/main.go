package main

import (
	"context"
	"fmt"
	"time"

	"github.com/classmark/cbt-backend/internal/config"
	"github.com/classmark/cbt-backend/internal/database"
	"github.com/classmark/cbt-backend/internal/logger"
	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/repository"
	"github.com/classmark/cbt-backend/internal/service"
)

// Seeds one class worth of students with predictable exam codes for
// local development. Every seeded account uses the password "letmein".
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	studentService := service.NewStudentService(studentRepo, cfg.BcryptCost, log)

	class := "JSS1"
	names := [][2]string{
		{"Adaeze", "Okafor"}, {"Bayo", "Adeyemi"}, {"Chidi", "Nwosu"}, {"Dami", "Balogun"},
		{"Efe", "Oghenekaro"}, {"Funke", "Adebayo"}, {"Gozie", "Eze"}, {"Halima", "Bello"},
		{"Ibrahim", "Musa"}, {"Jummai", "Garba"}, {"Kelechi", "Obi"}, {"Lola", "Oyelaran"},
		{"Musa", "Abdullahi"}, {"Ngozi", "Okeke"}, {"Obinna", "Anyanwu"}, {"Patience", "Essien"},
		{"Quadri", "Lawal"}, {"Rukayat", "Salami"}, {"Seun", "Ogunleye"}, {"Tari", "Briggs"},
		{"Uche", "Madu"}, {"Vera", "Ikenna"}, {"Wale", "Ashiru"}, {"Yemi", "Falana"},
		{"Zainab", "Yusuf"},
	}

	fmt.Printf("=== Seeding %d students into %s ===\n", len(names), class)

	successCount := 0
	for i, name := range names {
		req := &model.CreateStudentRequest{
			ExamCode:  fmt.Sprintf("TEST-%03d%c", i+1, 'A'+i%26),
			FirstName: name[0],
			LastName:  name[1],
			Class:     class,
			Password:  "letmein",
		}

		student, err := studentService.Create(ctx, req)
		if err != nil {
			if err == repository.ErrDuplicateExamCode {
				fmt.Printf("skip %s (already exists)\n", req.ExamCode)
				continue
			}
			log.Fatal().Err(err).Str("exam_code", req.ExamCode).Msg("Failed to create student")
		}

		fmt.Printf("created %s -> %s\n", student.ExamCode, student.FullName())
		successCount++
	}

	fmt.Printf("Done. %d students created.\n", successCount)
}
