// Command simulate drives the edit assistant from a local prompt, without the
// HTTP server, database, or message infrastructure. Useful to exercise a full
// conversation against a running prServer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"course-pr-be/internal/config"
	"course-pr-be/internal/dto"
	"course-pr-be/internal/pkg/logger"
	"course-pr-be/internal/repository/memory"
	"course-pr-be/internal/service"
	"course-pr-be/pkg/moderation"
	"course-pr-be/pkg/prserver"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	sessions := memory.NewSessionRepository(time.Duration(cfg.Session.TTLMinutes) * time.Minute)
	lookup := prserver.NewClient(cfg.PRServer.BaseURL, cfg.PRServer.APIKey)
	moderator := moderation.NewModerator(cfg.Moderation.APIKey, cfg.Moderation.BaseURL, cfg.Moderation.Model)

	svc := service.NewPREntryService(sessions, lookup, moderator, nil, "", cfg.Auth.AllowedUsers, sysLogger)

	userPrompt := color.New(color.FgCyan, color.Bold)
	botReply := color.New(color.FgGreen)
	errText := color.New(color.FgRed)

	fmt.Println("Simulated conversation. /pr help for commands, ctrl-d to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		userPrompt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			// a bare newline still drives states that accept blank answers
			text = ""
		}

		res, err := svc.Dispatch(context.Background(), &dto.DispatchRequest{
			ConversationID: "local",
			UserID:         "local-user",
			DisplayName:    os.Getenv("USER"),
			Text:           text,
		})
		if err != nil {
			errText.Printf("error: %v\n", err)
			continue
		}
		for _, reply := range res.Replies {
			botReply.Println(reply)
		}
	}
}
