// Package firewall restricts the Mythic admin portal port to a trusted source.
//
// Rules live in the DOCKER-USER chain, which Docker evaluates before its own
// forwarding rules for published container ports. Every rule mythic-ctl
// installs carries the comment
//
//	mythic-ctl:admin:<port>
//
// so later runs can find and replace exactly those rules and nothing else.
//
// A restriction is one transaction per address family, fed to
// iptables-restore --noflush or ip6tables-restore --noflush. The family of
// the source gets:
//
//	*filter
//	-D DOCKER-USER <previous marker rules...>
//	-I DOCKER-USER 1 -s <source> -p tcp --dport <port> ... -j ACCEPT
//	-I DOCKER-USER 2 -p tcp --dport <port> ... -j DROP
//	COMMIT
//
// The other family gets the same deletes and only the DROP, so the port is
// closed there too and no allow rule from an earlier source survives.
//
// Each restore commits the table as a whole, so there is no moment where
// the old rules are gone and the new ones are missing.
package firewall
