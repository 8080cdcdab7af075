package output

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/framing"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// Kafka publishes framed, encoded events to a topic via sarama's async
// producer, coalescing Coalesce events per produced message and running
// Threads workers pulled off the shared queue. Grounded on the teacher's
// lack of a Kafka output: this is the supplemented component SPEC_FULL.md
// §B adds to exercise IBM/sarama and klauspost/compress, which the pack
// carries but the teacher's ingesters never use for an output leg.
type Kafka struct {
	Brokers     []string
	Topic       string
	Acks        string
	Compression string
	Coalesce    int
	Threads     int
	Retries     int
	Encoder     encoders.Encoder
	Framer      framing.WriteFramer
	Logger      *log.Logger

	producer sarama.AsyncProducer
}

func NewKafka(brokers []string, topic, acks, compression string, coalesce, threads, retries int, enc encoders.Encoder, framer framing.WriteFramer, lg *log.Logger) (*Kafka, error) {
	if coalesce <= 0 {
		coalesce = 1
	}
	if threads <= 0 {
		threads = 1
	}
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.Retry.Max = retries

	switch acks {
	case "0":
		cfg.Producer.RequiredAcks = sarama.NoResponse
	case "1", "":
		cfg.Producer.RequiredAcks = sarama.WaitForLocal
	case "all":
		cfg.Producer.RequiredAcks = sarama.WaitForAll
	default:
		return nil, fmt.Errorf("output/kafka: unknown kafka_acks %q", acks)
	}

	switch compression {
	case "", "none":
		cfg.Producer.Compression = sarama.CompressionNone
	case "gzip":
		cfg.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	default:
		return nil, fmt.Errorf("output/kafka: unknown kafka_compression %q", compression)
	}

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("output/kafka: %w", err)
	}

	return &Kafka{
		Brokers: brokers, Topic: topic, Acks: acks, Compression: compression,
		Coalesce: coalesce, Threads: threads, Retries: retries,
		Encoder: enc, Framer: framer, Logger: lg, producer: producer,
	}, nil
}

func (k *Kafka) Run(ctx context.Context, in queue.Dequeuer) error {
	go k.drainErrors()

	done := make(chan struct{}, k.Threads)
	for i := 0; i < k.Threads; i++ {
		go func() {
			k.worker(ctx, in)
			done <- struct{}{}
		}()
	}
	for i := 0; i < k.Threads; i++ {
		<-done
	}
	return k.Shutdown(context.Background())
}

func (k *Kafka) worker(ctx context.Context, in queue.Dequeuer) {
	var batch []byte
	var count int
	flush := func() {
		if count == 0 {
			return
		}
		k.producer.Input() <- &sarama.ProducerMessage{
			Topic: k.Topic,
			Value: sarama.ByteEncoder(batch),
		}
		batch = nil
		count = 0
	}
	for {
		ev, ok := in.Dequeue(ctx)
		if !ok {
			flush()
			return
		}
		payload, err := k.Encoder.Encode(ev)
		if err != nil {
			k.Logger.Warnf("output/kafka: encode error: %v", err)
			continue
		}
		batch = append(batch, k.Framer.Frame(payload)...)
		count++
		if count >= k.Coalesce {
			flush()
		}
	}
}

func (k *Kafka) drainErrors() {
	for err := range k.producer.Errors() {
		k.Logger.Errorf("output/kafka: produce error: %v", err)
	}
}

func (k *Kafka) Shutdown(ctx context.Context) error {
	return k.producer.Close()
}
