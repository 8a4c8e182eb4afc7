package configuration

import (
	"encoding/json"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// MongoConfig selects the store mode: an empty URI (or an unreachable
// server) runs the chat core against the in-memory store.
type MongoConfig struct {
	URI                     string `json:"uri" envconfig:"MONGO_URI"`
	Database                string `json:"database" envconfig:"MONGO_DATABASE"`
	ConversationsCollection string `json:"conversationsCollection" envconfig:"MONGO_CONVERSATIONS_COLLECTION"`
	MessagesCollection      string `json:"messagesCollection" envconfig:"MONGO_MESSAGES_COLLECTION"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port" envconfig:"APP_PORT"`
	SocketPort     int      `json:"socket_port" envconfig:"SOCKET_PORT"`
	AllowedOrigins []string `json:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret" envconfig:"JWT_SECRET"`
}

type ChatConfig struct {
	SocketRoute     string `json:"socket_route" envconfig:"SOCKET_ROUTE"`
	HistoryPageSize int64  `json:"history_page_size" envconfig:"HISTORY_PAGE_SIZE"`
}

type Config struct {
	Mongo  MongoConfig    `json:"mongo"`
	Server ServerConfig   `json:"server"`
	Auth   AuthConfig     `json:"auth"`
	Chat   ChatConfig     `json:"chat"`
	// Users maps user ids to display names for DM previews when no
	// profile service is wired (memory mode, tests).
	Users map[string]string `json:"users"`
}

func defaults() Config {
	return Config{
		Mongo: MongoConfig{
			Database:                "eventflow",
			ConversationsCollection: "conversations",
			MessagesCollection:      "chat_messages",
		},
		Server: ServerConfig{
			AppPort:    5000,
			SocketPort: 5001,
		},
		Chat: ChatConfig{
			SocketRoute:     "ws",
			HistoryPageSize: 50,
		},
	}
}

// LoadConfig reads the JSON config file when present and then applies
// EVENTFLOW_* environment overrides on top.
func LoadConfig(configPath string) (*Config, error) {
	config := defaults()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			// no file: defaults + environment only
		} else if err := json.Unmarshal(file, &config); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("eventflow", &config); err != nil {
		return nil, err
	}
	return &config, nil
}
