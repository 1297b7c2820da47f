package notify

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	conn interface {
		Publish(subject string, data []byte) error
		Drain() error
	}
)
