package lib

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// CacheReferralCode stores a referral-code → profile-id mapping. Codes are
// immutable once assigned, so entries never need invalidation.
func CacheReferralCode(code string, profileID uint) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Set(context.Background(), "refcode:"+code, profileID, 24*time.Hour).Err(); err != nil {
		log.Printf("[redis] Failed to cache referral code %s: %s\n", code, err.Error())
	}
}

// CachedReferralCode returns the profile id cached for a code, if any.
func CachedReferralCode(code string) (uint, bool) {
	rd := GetRedisClient()
	if rd == nil {
		return 0, false
	}
	id, err := rd.Get(context.Background(), "refcode:"+code).Uint64()
	if err == redis.Nil {
		return 0, false
	} else if err != nil {
		log.Printf("[redis] Error reading referral code %s: %s\n", code, err.Error())
		return 0, false
	}
	return uint(id), true
}
