// Command dpreplay replays a pcap capture through the action
// execution engine, applying one fixed, hex-encoded action list to
// every packet it reads. It exists to exercise the engine end to end
// against real captured traffic, the way pcapFileIngester exercises
// gravwell's ingest path against one.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/ncopa/ovs/attrs"
	"github.com/ncopa/ovs/config"
	"github.com/ncopa/ovs/dp"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/log"
	"github.com/ncopa/ovs/packet"
	"github.com/ncopa/ovs/version"
)

var (
	pcapFile    = flag.String("pcap-file", "", "path to the pcap file to replay")
	actionsHex  = flag.String("actions", "", "hex-encoded action list applied to every packet")
	cfgFile     = flag.String("config", "", "path to a tunables config file (optional)")
	logFile     = flag.String("log-file", "", "path to write logs to; read only together with -config (then default stderr); without -config logs are discarded")
	showVersion = flag.Bool("version", false, "print version and OS info and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		version.PrintVersion(os.Stdout)
		log.PrintOSInfo(os.Stdout)
		return
	}

	if *pcapFile == "" {
		fmt.Fprintln(os.Stderr, "a -pcap-file is required")
		os.Exit(1)
	}
	if *actionsHex == "" {
		fmt.Fprintln(os.Stderr, "an -actions hex string is required")
		os.Exit(1)
	}
	actionBytes, err := hex.DecodeString(strings.TrimSpace(*actionsHex))
	if err != nil {
		fmt.Fprintf(os.Stderr, "malformed -actions hex: %v\n", err)
		os.Exit(1)
	}

	cores := 1
	levelLimit := dp.LevelLimit
	lg := log.NewDiscardLogger()
	if *cfgFile != "" {
		cfg, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cores = cfg.Cores
		levelLimit = cfg.LevelLimit
		lvl, _ := log.LevelFromString(cfg.LogLevel)
		if *logFile != "" {
			lg2, err := log.NewFile(*logFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
				os.Exit(1)
			}
			lg2.SetLevel(lvl)
			lg = lg2
		} else {
			lg = log.New(os.Stderr)
			lg.SetLevel(lvl)
		}
	}

	hnd, err := pcap.OpenOffline(*pcapFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open pcap file: %v\n", err)
		os.Exit(1)
	}
	defer hnd.Close()

	ports := &loggingPorts{lg: lg}
	upcall := &loggingUpcaller{lg: lg}
	keys := passthroughKeyUpdater{}
	reenter := &loggingReenterer{lg: lg}

	d := dp.New(cores, ports, upcall, keys, reenter, lg)
	d.LevelLimit = levelLimit
	list := attrs.NewList(actionBytes)

	sch := make(chan os.Signal, 1)
	signal.Notify(sch, os.Interrupt)

	src := gopacket.NewPacketSource(hnd, hnd.LinkType())
	var count, dropped uint64
	for pkt := range src.Packets() {
		select {
		case <-sch:
			fmt.Fprintf(os.Stdout, "interrupted after %d packets (%d dropped)\n", count, dropped)
			return
		default:
		}

		buf, key := buildBuffer(pkt)
		if buf == nil {
			dropped++
			continue
		}
		count++
		if err := d.ExecuteActions(0, buf, key, list); err != nil {
			lg.Warnf("packet %d: %v", count, err)
		}
	}
	fmt.Fprintf(os.Stdout, "replayed %d packets (%d dropped)\n", count, dropped)
}

// buildBuffer decodes just enough of a captured packet to seed the
// flow key and buffer layering the engine needs: mac/network/transport
// offsets and the outer ethertype. Deeper field extraction (the rest
// of sw_flow_key) is the flow table's job and out of scope here.
func buildBuffer(pkt gopacket.Packet) (*packet.Buffer, *flowkey.Key) {
	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, nil
	}
	eth := ethLayer.(*layers.Ethernet)

	raw := append([]byte(nil), pkt.Data()...)
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.MacOffset = 0
	buf.MacLen = 14

	var key flowkey.Key
	copy(key.Eth.Src[:], eth.SrcMAC)
	copy(key.Eth.Dst[:], eth.DstMAC)
	key.Eth.Type = uint16(eth.EthernetType)
	buf.Protocol = uint16(eth.EthernetType)

	buf.NetworkOffset = buf.MacLen
	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		l := ip4.(*layers.IPv4)
		key.IPv4.Src = be32(l.SrcIP)
		key.IPv4.Dst = be32(l.DstIP)
		key.IP.TOS = l.TOS
		key.IP.TTL = l.TTL
		buf.TransportOffset = buf.NetworkOffset + int(l.IHL)*4
	} else if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		l := ip6.(*layers.IPv6)
		copy(key.IPv6.Src[:], l.SrcIP)
		copy(key.IPv6.Dst[:], l.DstIP)
		key.IP.TTL = l.HopLimit
		buf.TransportOffset = buf.NetworkOffset + 40
	} else {
		buf.TransportOffset = buf.NetworkOffset
	}

	if tcp := pkt.Layer(layers.LayerTypeTCP); tcp != nil {
		l := tcp.(*layers.TCP)
		key.TP.Src = uint16(l.SrcPort)
		key.TP.Dst = uint16(l.DstPort)
	} else if udp := pkt.Layer(layers.LayerTypeUDP); udp != nil {
		l := udp.(*layers.UDP)
		key.TP.Src = uint16(l.SrcPort)
		key.TP.Dst = uint16(l.DstPort)
	}

	return buf, &key
}

func be32(ip []byte) uint32 {
	if len(ip) == 16 {
		ip = ip[12:16]
	}
	if len(ip) != 4 {
		return 0
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}
