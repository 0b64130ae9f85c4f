package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc"

	pb "appointment-booking-api/internal/bookingpb"
	"appointment-booking-api/internal/config"
	gweb "appointment-booking-api/internal/grpcweb"
	"appointment-booking-api/internal/handler"
	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/rest"
	"appointment-booking-api/internal/service"
	"appointment-booking-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, closeStore := openStore(cfg)
	defer closeStore()

	svc, err := service.New(st)
	if err != nil {
		log.Fatalf("service: %v", err)
	}

	// one limiter shared by both transports
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// grpc server
	srv := grpc.NewServer(
		grpc.ForceServerCodec(pb.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.Logging(),
			middleware.RateLimit(rl),
		),
	)
	pb.RegisterBookingServiceServer(srv, handler.New(svc))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	go func() {
		log.Printf("grpc on :%s", cfg.GRPCPort)
		if err := srv.Serve(lis); err != nil {
			log.Printf("grpc: %v", err)
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.GRPCPort, cfg.AllowedOrigins)
	if err != nil {
		log.Fatalf("bridge: %v", err)
	}
	defer bridge.Close()

	router := rest.NewRouter(svc, rest.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Limiter:        rl,
	})
	web := gin.WrapH(bridge.Handler())
	router.POST("/"+pb.ServiceName+"/:method", web)
	router.OPTIONS("/"+pb.ServiceName+"/:method", web)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("http on :%s (%s store)", cfg.WebPort, cfg.StoreDriver)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	srv.GracefulStop()
}

func openStore(cfg *config.Config) (store.Store, func()) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Println("using in-memory store, data is lost on exit")
		return store.NewMemory(), func() {}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	log.Println("connected to postgres")

	if err := store.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	return store.New(pool), pool.Close
}
