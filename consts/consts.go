package consts

import (
	"time"
)

const (
	Version = "2.0" // значение поля "jsonrpc", сравнивается побайтово

	DefaultCacheSize    = 1 << 12
	DefaultCacheTTL     = 10 * time.Minute
	DefaultDrainTimeout = 5 * time.Second
	DefaultBufferSize   = 4096 // начальная емкость буфера тела запроса
	MaxPooledBuffers    = 256  // больше буферов в пуле не держим
	MaxPooledBufferSize = 1 << 20
	DefaultMaxBodySize  = 16 << 20
	MaxIntegerDigits    = 1 << 10 // предел цифр для big.Int параметров
)
