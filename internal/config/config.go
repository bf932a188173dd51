package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	// Host is the public base URL of this deployment, used for OAuth redirects
	// and as the default webhook callback address.
	Host     string   `koanf:"host"`
	Listen   string   `koanf:"listen"`
	Admin    Admin    `koanf:"admin"`
	Google   Google   `koanf:"google"`
	Webhook  Webhook  `koanf:"webhook"`
	Frontend Frontend `koanf:"frontend"`
	Database Database `koanf:"db"`
}

type Admin struct {
	// Email of the user that is bootstrapped with the admin role on first
	// sign-in. Everyone else gets the regular user role.
	Email string `koanf:"email"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Webhook struct {
	// Address Google will POST change notifications to. Empty means
	// Host + "/api/webhook/google".
	Address string `koanf:"address"`
}

type Frontend struct {
	Enabled bool `koanf:"enabled"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// CallbackAddress returns the webhook callback URL Google should deliver
// push notifications to.
func (a Application) CallbackAddress() string {
	if a.Webhook.Address != "" {
		return a.Webhook.Address
	}
	return a.Host + "/api/webhook/google"
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host:   "http://localhost:3000",
		Listen: ":8184",
		Frontend: Frontend{
			Enabled: true,
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "crewcal",
			Pass:   "",
			Name:   "crewcal",
			Schema: "crewcal",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "CREWCAL_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "CREWCAL_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
