package main

import (
	"fmt"
	"net/http"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "session":
		sessionCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Activity Simulator - Development tool for seeding a local backend

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Register users who post, follow, like, comment and share ideas
  session   Walk one account through login, refresh rotation, reuse and logout
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Seed 5 users with 2 posts each
  simulator populate

  # Seed 20 users with 4 posts each and skip ideas
  simulator populate --users=20 --posts=4 --skip-ideas

  # Check refresh token rotation against a running server
  simulator session`)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	users := fs.Int("users", 5, "Number of users to create")
	posts := fs.Int("posts", 2, "Posts per user")
	skipIdeas := fs.Bool("skip-ideas", false, "Do not create ideas or interests")
	fs.Parse(args)

	if *users < 2 {
		fmt.Println("Error: --users must be at least 2")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Activity Simulator: Populate ===")
	fmt.Println()

	// 1. Register users
	fmt.Printf("Registering %d users:\n", *users)
	sessions := make([]*Session, 0, *users)
	for i := 0; i < *users; i++ {
		session, err := client.RegisterUser(fmt.Sprintf("member%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *users, err)
			os.Exit(1)
		}
		sessions = append(sessions, session)
		fmt.Printf("  [%d/%d] @%s\n", i+1, *users, session.User.Username)
	}

	// 2. Everyone follows the next user in a ring
	fmt.Println()
	fmt.Print("Following... ")
	for i, s := range sessions {
		target := sessions[(i+1)%len(sessions)]
		if err := client.Follow(s.AccessToken, target.User.ID); err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Println("OK")

	// 3. Posts
	fmt.Print("Posting... ")
	var created []*Post
	for _, s := range sessions {
		for p := 0; p < *posts; p++ {
			post, err := client.CreatePost(s.AccessToken, fmt.Sprintf("Update %d from @%s", p+1, s.User.Username))
			if err != nil {
				fmt.Printf("FAILED\n  Error: %v\n", err)
				os.Exit(1)
			}
			created = append(created, post)
		}
	}
	fmt.Printf("OK (%d posts)\n", len(created))

	// 4. Likes and comments from the previous user in the ring
	fmt.Print("Liking and commenting... ")
	likes, comments := 0, 0
	perUser := *posts
	for i, post := range created {
		actor := sessions[(i/perUser+len(sessions)-1)%len(sessions)]
		if err := client.ToggleLike(actor.AccessToken, post.ID); err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		likes++
		if i%2 == 0 {
			if err := client.Comment(actor.AccessToken, post.ID, "Nice one!"); err != nil {
				fmt.Printf("FAILED\n  Error: %v\n", err)
				os.Exit(1)
			}
			comments++
		}
	}
	fmt.Printf("OK (%d likes, %d comments)\n", likes, comments)

	// 5. Ideas
	if !*skipIdeas {
		fmt.Print("Sharing ideas... ")
		idea, err := client.CreateIdea(sessions[0].AccessToken, "Study group planner")
		if err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		for _, s := range sessions[1:] {
			if err := client.SendInterest(s.AccessToken, idea.ID); err != nil {
				fmt.Printf("FAILED\n  Error: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Printf("OK (%d interested)\n", len(sessions)-1)
	}

	page, err := client.Feed(sessions[0].AccessToken, 5)
	if err != nil {
		fmt.Printf("Warning: Failed to read feed: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  BACKEND POPULATED")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Println("  Latest posts:")
	for _, p := range page.Posts {
		fmt.Printf("    %s  (%d likes, %d comments)\n", p.Content, p.LikesCount, p.CommentsCount)
	}
	fmt.Println()
	fmt.Printf("  Log in as @%s with password %q\n", sessions[0].User.Username, sessions[0].Password)
	fmt.Println()
}

func sessionCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	rotations := fs.Int("rotations", 3, "Number of refresh rotations to perform")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Activity Simulator: Session ===")
	fmt.Println()

	session, err := client.RegisterUser("session")
	if err != nil {
		fmt.Printf("Failed to register: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Registered @%s\n", session.User.Username)

	login, err := client.Login(session.User.Username, session.Password)
	if err != nil {
		fmt.Printf("Failed to log in: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in (daily XP: %d, already claimed: %t)\n", login.DailyXP, login.AlreadyClaimed)

	current := login.RefreshToken
	var previous string
	for i := 0; i < *rotations; i++ {
		rotated, err := client.Refresh(current)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *rotations, err)
			os.Exit(1)
		}
		previous, current = current, rotated.RefreshToken
		fmt.Printf("  [%d/%d] rotated\n", i+1, *rotations)
	}

	check := func(label, token string) {
		status, err := client.RefreshStatus(token)
		if err != nil {
			fmt.Printf("%s: request failed: %v\n", label, err)
			os.Exit(1)
		}
		result := "OK"
		if status != http.StatusUnauthorized {
			result = fmt.Sprintf("UNEXPECTED (status %d)", status)
		}
		fmt.Printf("%s rejected... %s\n", label, result)
	}

	if previous != "" {
		check("Reused token", previous)
	}

	if err := client.Logout(current); err != nil {
		fmt.Printf("Failed to log out: %v\n", err)
		os.Exit(1)
	}
	check("Logged-out token", current)
}
