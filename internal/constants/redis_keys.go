package constants

const (
	RedisKeyUserByUsername = "user:username:%s"
	RedisKeyUserByEmail    = "user:email:%s"
)
