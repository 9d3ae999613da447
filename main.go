package main

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/tayylorngo/t-testing-sub000/handlers"
	"github.com/tayylorngo/t-testing-sub000/initializers"
	"github.com/tayylorngo/t-testing-sub000/middleware"
	"github.com/tayylorngo/t-testing-sub000/pkg/notify"
	"github.com/tayylorngo/t-testing-sub000/pkg/permissions"
	"github.com/tayylorngo/t-testing-sub000/repository"
	"github.com/tayylorngo/t-testing-sub000/websocket"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET must be set and at least 32 characters")
	}

	if os.Getenv("GIN_MODE") == "release" || strings.ToLower(os.Getenv("APP_ENV")) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		log.Printf("DB connection failed: %v, retrying in 2s...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("Could not connect to database:", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("Migration driver error:", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		log.Fatal("Migration init error:", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("Migration failed:", err)
	}

	if err := initializers.InitMinio(); err != nil {
		log.Fatal("Failed to initialize MinIO:", err)
	}

	usersRepo := repository.NewUsersRepository(db)
	sessionsRepo := repository.NewSessionsRepository(db)
	invitationsRepo := repository.NewInvitationsRepository(db)
	roomsRepo := repository.NewRoomsRepository(db)
	sectionsRepo := repository.NewSectionsRepository(db)
	attachmentsRepo := repository.NewAttachmentsRepository(db)
	notificationsRepo := repository.NewNotificationsRepository(db)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())

	// Correct client IPs behind a proxy; loopback only unless overridden.
	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies != "" {
		parts := strings.Split(trustedProxies, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := r.SetTrustedProxies(parts); err != nil {
			log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
		}
	} else {
		_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	}

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware())

	// Joining a session's live feed requires view access to that session.
	hub := websocket.NewHub(func(userID, sessionID int) bool {
		s, err := sessionsRepo.GetSessionByID(sessionID)
		if err != nil || s == nil {
			return false
		}
		return permissions.CanView(s, userID)
	})
	notifier := &notify.WSNotifier{Hub: hub}

	authHandler := handlers.NewAuthHandler(usersRepo, jwtSecret)
	sessionsHandler := handlers.NewSessionsHandler(sessionsRepo).
		WithNotifier(notifier).
		WithNotificationsRepo(notificationsRepo)
	invitationsHandler := handlers.NewInvitationsHandler(invitationsRepo, sessionsRepo, usersRepo).
		WithNotifier(notifier).
		WithNotificationsRepo(notificationsRepo)
	roomsHandler := handlers.NewRoomsHandler(roomsRepo, sessionsRepo).WithNotifier(notifier)
	sectionsHandler := handlers.NewSectionsHandler(sectionsRepo, roomsRepo, sessionsRepo).WithNotifier(notifier)
	attachmentsHandler := handlers.NewAttachmentsHandler(attachmentsRepo, sessionsRepo)
	notificationsHandler := handlers.NewNotificationsHandler(notificationsRepo)

	r.GET("/health", handlers.HealthCheck)

	authPublic := r.Group("/", middleware.RateLimitAuthMiddleware())
	authPublic.POST("/register", authHandler.Register)
	authPublic.POST("/login", authHandler.Login)

	auth := r.Group("/", handlers.AuthMiddleware(jwtSecret))
	{
		auth.GET("/ws", websocket.ServeWS(hub))

		auth.POST("/sessions", sessionsHandler.CreateSession)
		auth.GET("/sessions", sessionsHandler.GetSessions)
		auth.GET("/sessions/:sessionId", sessionsHandler.GetSession)
		auth.PATCH("/sessions/:sessionId", sessionsHandler.UpdateSession)
		auth.DELETE("/sessions/:sessionId", sessionsHandler.DeleteSession)

		auth.GET("/sessions/:sessionId/collaborators", sessionsHandler.GetCollaborators)
		auth.PATCH("/sessions/:sessionId/collaborators/:userId", sessionsHandler.UpdateCollaborator)
		auth.DELETE("/sessions/:sessionId/collaborators/:userId", sessionsHandler.RemoveCollaborator)

		auth.POST("/sessions/:sessionId/invitations", invitationsHandler.CreateInvitation)
		auth.GET("/sessions/:sessionId/invitations", invitationsHandler.GetSessionInvitations)
		auth.GET("/invitations", invitationsHandler.GetMyInvitations)
		auth.POST("/invitations/:id/accept", invitationsHandler.AcceptInvitation)
		auth.POST("/invitations/:id/decline", invitationsHandler.DeclineInvitation)
		auth.POST("/invitations/:id/cancel", invitationsHandler.CancelInvitation)
		auth.DELETE("/invitations/:id", invitationsHandler.ClearInvitation)

		auth.POST("/sessions/:sessionId/rooms", roomsHandler.CreateRoom)
		auth.PATCH("/rooms/:roomId", roomsHandler.UpdateRoom)
		auth.DELETE("/rooms/:roomId", roomsHandler.DeleteRoom)

		auth.POST("/sessions/:sessionId/sections", sectionsHandler.CreateSection)
		auth.PATCH("/sections/:sectionId", sectionsHandler.UpdateSection)
		auth.DELETE("/sections/:sectionId", sectionsHandler.DeleteSection)

		auth.POST("/upload", attachmentsHandler.UploadFile)
		auth.GET("/files/:id", attachmentsHandler.GetFile)

		auth.GET("/notifications/unread", notificationsHandler.ListUnread)
		auth.POST("/notifications/mark-read", notificationsHandler.MarkRead)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server error:", err)
	}
}
