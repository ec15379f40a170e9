package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ANSI colors, matching the node's own banner palette.
const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
)

var rootCmd = &cobra.Command{
	Use:   "solechain",
	Short: "SOLE Chain node CLI",
	Long:  `Command line interface for the SOLE Chain proof-of-work node (Educational Project).`,
}

var (
	portFlag      int
	apiPortFlag   int
	bootnodesFlag string
	mineFlag      bool
	lambdaFlag    uint64
	mnemonicFlag  string
	passphrase    string
)

// Execute runs the root command with a custom help/usage renderer.
func Execute() {
	rootCmd.SetHelpFunc(printUsage)
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		printUsage(cmd, nil)
		return nil
	})

	if len(os.Args) < 2 {
		rootCmd.Help()
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage(cmd *cobra.Command, args []string) {
	fmt.Println(colorBold + "USAGE:" + colorReset)
	fmt.Println("  solechain <resource> <action> [flags]")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)

	fmt.Fprintln(w, colorYellow+"1. KEYS (keygen)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"keygen"+colorReset+"\tGenerates (or derives) an Ed25519 keypair and its address.")
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, colorYellow+"2. CHAIN (chain)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"tip"+colorReset+"\tPrints the current tip hash and chain length of a fresh local chain.")
	fmt.Fprintln(w, "  "+colorGreen+"print"+colorReset+"\tPrints the genesis block of a fresh local chain.")
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, colorYellow+"3. NODE (node)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"start"+colorReset+"\tStarts the P2P gossip node, the inspection API, and optionally the miner.")
	fmt.Fprintln(w, "\t"+colorCyan+"Flags:"+colorReset+" --port, --api-port, --bootnodes, --mine, --lambda")
	fmt.Fprintln(w, "")

	w.Flush()
	fmt.Println()
}

func init() {
	var keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate or derive an Ed25519 keypair",
		Run:   runKeygen,
	}
	keygenCmd.Flags().StringVar(&mnemonicFlag, "mnemonic", "", "Derive from this BIP-39 mnemonic instead of generating fresh entropy")
	keygenCmd.Flags().StringVar(&passphrase, "passphrase", "", "Optional BIP-39 passphrase")
	rootCmd.AddCommand(keygenCmd)

	var chainCmd = &cobra.Command{
		Use:   "chain",
		Short: "Inspect a local chain",
	}
	rootCmd.AddCommand(chainCmd)

	var chainTipCmd = &cobra.Command{
		Use:   "tip",
		Short: "Print the tip hash and chain length",
		Run:   runChainTip,
	}
	chainCmd.AddCommand(chainTipCmd)

	var chainPrintCmd = &cobra.Command{
		Use:   "print",
		Short: "Print the longest chain, one short stanza per block",
		Run:   runChainPrint,
	}
	chainCmd.AddCommand(chainPrintCmd)

	var nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Run the P2P node",
	}
	rootCmd.AddCommand(nodeCmd)

	var nodeStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the gossip node, inspection API, and optionally the miner",
		Run:   runNodeStart,
	}
	nodeStartCmd.Flags().IntVar(&portFlag, "port", 3000, "P2P listen port")
	nodeStartCmd.Flags().IntVar(&apiPortFlag, "api-port", 8080, "Inspection API port")
	nodeStartCmd.Flags().StringVar(&bootnodesFlag, "bootnodes", "", "Comma-separated bootnode multiaddrs")
	nodeStartCmd.Flags().BoolVar(&mineFlag, "mine", false, "Start the miner immediately")
	nodeStartCmd.Flags().Uint64Var(&lambdaFlag, "lambda", 0, "Microseconds to sleep between mining attempts (0 = flat out)")
	nodeCmd.AddCommand(nodeStartCmd)
}

func runKeygen(cmd *cobra.Command, args []string) {
	var priv ed25519.PrivateKey
	if mnemonicFlag != "" {
		var err error
		priv, err = DeriveKeyFromMnemonic(mnemonicFlag, passphrase)
		if err != nil {
			fmt.Println("⛔ " + err.Error())
			os.Exit(1)
		}
	} else {
		mnemonic, err := NewMnemonic()
		if err != nil {
			log.Panic(err)
		}
		priv, err = DeriveKeyFromMnemonic(mnemonic, passphrase)
		if err != nil {
			log.Panic(err)
		}
		fmt.Printf("Mnemonic:   %s\n", mnemonic)
	}

	pub := priv.Public().(ed25519.PublicKey)
	addr := AddressFromPublicKey(pub)

	fmt.Printf("Address:    %s\n", addr.String())
	fmt.Printf("Public Key: %s\n", hex.EncodeToString(pub))
	fmt.Printf("Private Key: %s\n", hex.EncodeToString(priv))
}

func runChainTip(cmd *cobra.Command, args []string) {
	chain := NewBlockchain()
	fmt.Printf("Tip: %s\nChain length: %d\n", chain.Tip().String(), chain.ChainLength())
}

func runChainPrint(cmd *cobra.Command, args []string) {
	chain := NewBlockchain()
	for _, h := range chain.BlocksInLongestChain() {
		b, _ := chain.Get(h)
		fmt.Printf("=== Block (depth %d) ===\n", b.Depth)
		fmt.Printf("Hash:       %s\n", h.String())
		fmt.Printf("Parent:     %s\n", b.Header.Parent.String())
		fmt.Printf("Difficulty: %s\n", b.Header.Difficulty.String())
		fmt.Printf("Tx count:   %d\n", len(b.Content.Transactions))
		fmt.Println()
	}
}

func runNodeStart(cmd *cobra.Command, args []string) {
	fmt.Printf("Starting SOLE Chain node on P2P port %d, API port %d...\n", portFlag, apiPortFlag)

	var bootnodes []string
	if bootnodesFlag != "" {
		bootnodes = strings.Split(bootnodesFlag, ",")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p2p, err := NewP2PServer(ctx, portFlag, bootnodes)
	if err != nil {
		log.Panic("node: failed to start P2P server:", err)
	}

	chain := NewBlockchain()
	mempool := NewMempool()

	const workerFanout = 4
	for i := 0; i < workerFanout; i++ {
		worker := NewGossipWorker(chain, mempool, p2p)
		go worker.Run(p2p.Inbound)
	}

	rest := NewRestServer(chain, mempool, p2p)
	apiSrv := &http.Server{Addr: fmt.Sprintf(":%d", apiPortFlag), Handler: rest.Router()}
	go func() {
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logError("api: server stopped: %v", err)
		}
	}()

	miner := NewMiner(chain, mempool, p2p)
	if mineFlag {
		go miner.Run()
		miner.Start(lambdaFlag)
		logSuccess("miner started (lambda=%dus)", lambdaFlag)
	}

	logNetwork("node listening, peer id %s", p2p.Host.ID().String())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println()
	logWarn("stop signal received, shutting down...")

	if mineFlag {
		miner.Exit()
	}
	_ = apiSrv.Close()
	if err := p2p.Close(); err != nil {
		logError("error closing P2P host: %v", err)
	}
	logSuccess("node shut down cleanly")
}
