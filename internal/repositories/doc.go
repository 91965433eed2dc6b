// package repositories holds the sqlite-backed persistence layer. The only
// table today is the enrichment lookup cache.
package repositories
