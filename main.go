package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"huddle_server/routes"
	"huddle_server/services"
	"huddle_server/socket"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and store
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	store := services.NewDynamoMembershipStore(dynamoService)
	log.Println("DynamoDB client initialized.")

	// Initialize Services
	profileService := &services.ProfileService{Store: store}
	modeService := &services.ModeService{Store: store}
	matcherService := &services.MatcherService{Store: store, Profiles: profileService}
	exitService := &services.ExitService{Store: store}
	reshuffleService := &services.ReshuffleService{
		Store:    store,
		Modes:    modeService,
		Matcher:  matcherService,
		Profiles: profileService,
	}
	votingService := &services.VotingService{
		Store:      store,
		Exits:      exitService,
		Reshuffler: reshuffleService,
	}

	// Initialize the Socket.IO server for lifecycle watchers
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.IO.Serve(); err != nil {
			log.Printf("Socket.IO server error: %v", err)
		}
	}()
	defer socketServer.IO.Close()

	// Tail the store's change streams so watchers get pushed updates
	startStreamWatchers(socketServer)

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Huddle")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterProfileRoutes(r, profileService)
	routes.RegisterMatchingRoutes(r, reshuffleService)
	routes.RegisterVotingRoutes(r, votingService)
	routes.RegisterExitRoutes(r, exitService, reshuffleService)
	r.PathPrefix("/socket.io/").Handler(socketServer.IO)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

// startStreamWatchers tails the Groups and GroupVotes DynamoDB streams when
// their ARNs are configured; without them, lifecycle updates are only
// re-derived on explicit client reads
func startStreamWatchers(broadcast services.Broadcaster) {
	groupsArn := os.Getenv("GROUPS_STREAM_ARN")
	votesArn := os.Getenv("VOTES_STREAM_ARN")
	if groupsArn == "" && votesArn == "" {
		log.Println("No stream ARNs configured, skipping stream watchers")
		return
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Printf("Failed to load AWS config for stream watchers: %v", err)
		return
	}
	watcher := services.NewStreamWatcher(dynamodbstreams.NewFromConfig(cfg), broadcast)

	for _, arn := range []string{groupsArn, votesArn} {
		if arn == "" {
			continue
		}
		go func(streamArn string) {
			if err := watcher.Watch(context.Background(), streamArn); err != nil {
				log.Printf("Stream watcher for %s stopped: %v", streamArn, err)
			}
		}(arn)
	}
}
