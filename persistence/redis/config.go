package redis

type Config struct {
	Addr      string
	Namespace string
	PoolSize  int
	Password  string
}
