// Command seed provisions the database schema and a demo institution so the
// API can be exercised locally without manual SQL.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	"github.com/Rishi9822/timetable-organizer-api/internal/repository"
	"github.com/Rishi9822/timetable-organizer-api/pkg/config"
	"github.com/Rishi9822/timetable-organizer-api/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS institutions (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    working_days TEXT[] NOT NULL DEFAULT '{Monday,Tuesday,Wednesday,Thursday,Friday,Saturday}',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    institution_id UUID NOT NULL REFERENCES institutions(id),
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS classes (
    id UUID PRIMARY KEY,
    institution_id UUID NOT NULL REFERENCES institutions(id),
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS teachers (
    id UUID PRIMARY KEY,
    institution_id UUID NOT NULL REFERENCES institutions(id),
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    max_periods_per_day INT NOT NULL DEFAULT 6,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY,
    institution_id UUID NOT NULL REFERENCES institutions(id),
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    periods_per_week INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS timetables (
    id UUID PRIMARY KEY,
    institution_id UUID NOT NULL REFERENCES institutions(id),
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    academic_year TEXT NOT NULL,
    is_published BOOLEAN NOT NULL DEFAULT FALSE,
    periods JSONB NOT NULL DEFAULT '{}',
    superseded_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS timetables_one_draft
    ON timetables (class_id, academic_year)
    WHERE NOT is_published AND superseded_at IS NULL;

CREATE UNIQUE INDEX IF NOT EXISTS timetables_one_published
    ON timetables (class_id, academic_year)
    WHERE is_published AND superseded_at IS NULL;
`

func main() {
	var adminPassword string
	flag.StringVar(&adminPassword, "admin-password", "changeme", "password for the seeded admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	institutions := repository.NewInstitutionRepository(db)
	users := repository.NewUserRepository(db)
	classes := repository.NewClassRepository(db)
	teachers := repository.NewTeacherRepository(db)
	subjects := repository.NewSubjectRepository(db)

	institution := &models.Institution{
		Name:        "Springfield High",
		Type:        models.InstitutionTypeSchool,
		WorkingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}
	if err := institutions.Create(ctx, institution); err != nil {
		log.Fatalf("failed to seed institution: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}
	admin := &models.User{
		InstitutionID: institution.ID,
		Email:         "admin@springfield.edu",
		PasswordHash:  string(hash),
		FullName:      "Demo Admin",
		Role:          models.RoleAdmin,
		Active:        true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}

	for _, name := range []string{"Grade 10A", "Grade 10B", "Grade 11A"} {
		class := &models.Class{InstitutionID: institution.ID, Name: name, Type: models.ClassTypeSchool}
		if err := classes.Create(ctx, class); err != nil {
			log.Fatalf("failed to seed class %s: %v", name, err)
		}
	}

	demoTeachers := []models.Teacher{
		{FullName: "Ada Lovelace", Email: "ada@springfield.edu", MaxPeriodsPerDay: 6},
		{FullName: "Alan Turing", Email: "alan@springfield.edu", MaxPeriodsPerDay: 5},
		{FullName: "Grace Hopper", Email: "grace@springfield.edu", MaxPeriodsPerDay: 6},
	}
	for i := range demoTeachers {
		demoTeachers[i].InstitutionID = institution.ID
		demoTeachers[i].Active = true
		if err := teachers.Create(ctx, &demoTeachers[i]); err != nil {
			log.Fatalf("failed to seed teacher %s: %v", demoTeachers[i].FullName, err)
		}
	}

	demoSubjects := []models.Subject{
		{Code: "MATH", Name: "Mathematics", PeriodsPerWeek: 6},
		{Code: "PHY", Name: "Physics", PeriodsPerWeek: 4},
		{Code: "ENG", Name: "English", PeriodsPerWeek: 5},
	}
	for i := range demoSubjects {
		demoSubjects[i].InstitutionID = institution.ID
		if err := subjects.Create(ctx, &demoSubjects[i]); err != nil {
			log.Fatalf("failed to seed subject %s: %v", demoSubjects[i].Code, err)
		}
	}

	log.Printf("seeded institution %s with admin %s", institution.ID, admin.Email)
}
