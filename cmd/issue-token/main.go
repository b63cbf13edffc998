package main

import (
	"flag"
	"fmt"
	"log"

	"marketplace-catalog/config"
	"marketplace-catalog/pkg/jwt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// issue-token mints a bearer token for local testing of the seller and admin routes.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.LoadEnv()

	role := flag.String("role", jwt.RoleSeller, "seller or admin")
	name := flag.String("name", "Local Seller", "display name carried in the token")
	sellerFlag := flag.String("seller", "", "seller id (random when empty)")
	shopFlag := flag.String("shop", "", "shop id (random when empty)")
	flag.Parse()

	if *role != jwt.RoleSeller && *role != jwt.RoleAdmin {
		log.Fatalf("❌ Unknown role %q", *role)
	}

	sellerID, err := idOrNew(*sellerFlag)
	if err != nil {
		log.Fatalf("❌ Invalid seller id: %v", err)
	}
	shopID, err := idOrNew(*shopFlag)
	if err != nil {
		log.Fatalf("❌ Invalid shop id: %v", err)
	}

	token, err := jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TTL).GenerateToken(sellerID, shopID, *name, *role)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}

	log.Printf("✅ %s token for seller %s, shop %s (valid %s)", *role, sellerID, shopID, cfg.JWT.TTL)
	fmt.Println(token)
}

func idOrNew(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}
